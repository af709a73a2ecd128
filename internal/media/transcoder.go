package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/command"
)

// Transcoder converts any input ffmpeg can read into a canonical AudioBuffer.
type Transcoder struct {
	runner  command.Runner
	tool    string
	timeout time.Duration
	tempDir string
	client  *http.Client
}

// TranscoderOption customizes a Transcoder.
type TranscoderOption func(*Transcoder)

// WithTempDir sets where disk-mode downloads are staged.
func WithTempDir(dir string) TranscoderOption {
	return func(t *Transcoder) { t.tempDir = dir }
}

// WithHTTPClient sets the client used for disk-mode downloads.
func WithHTTPClient(c *http.Client) TranscoderOption {
	return func(t *Transcoder) { t.client = c }
}

func NewTranscoder(runner command.Runner, tool string, timeout time.Duration, opts ...TranscoderOption) *Transcoder {
	if tool == "" {
		tool = "ffmpeg"
	}
	t := &Transcoder{
		runner:  runner,
		tool:    tool,
		timeout: timeout,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// transcodeArgs reads input (URL or file) and writes 16 kHz mono s16 WAV to stdout.
func transcodeArgs(input string) []string {
	return []string{
		"-nostdin",
		"-v", "error",
		"-i", input,
		"-vn",
		"-f", "wav",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"pipe:1",
	}
}

// Transcode streams input through ffmpeg and reads the WAV output fully into
// memory. input is either a resolved media URL or a local file path.
func (t *Transcoder) Transcode(ctx context.Context, input string) (AudioBuffer, error) {
	path, err := t.runner.LookPath(t.tool)
	if err != nil {
		return AudioBuffer{}, &TranscodeError{Input: redact(input), Err: err}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := t.runner.Run(ctx, path, transcodeArgs(input)...)
	if err != nil {
		return AudioBuffer{}, &TranscodeError{Input: redact(input), ExitCode: res.ExitCode, Stderr: string(res.Stderr), Err: err}
	}
	if res.ExitCode != 0 {
		log.Printf("transcoder: ffmpeg failed after %v (exit %d)\nstderr: %s", time.Since(start), res.ExitCode, res.Stderr)
		return AudioBuffer{}, &TranscodeError{Input: redact(input), ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}

	buf, err := DecodeWAV(res.Stdout)
	if err != nil {
		return AudioBuffer{}, &TranscodeError{Input: redact(input), Stderr: string(res.Stderr), Err: err}
	}

	log.Printf("transcoder: decoded %v of audio (%d bytes) in %v", buf.Duration(), buf.Len(), time.Since(start))
	return buf, nil
}

// TranscodeViaDisk downloads the resolved URL to a temporary file first and
// transcodes that file. The temporary input is removed before returning.
func (t *Transcoder) TranscodeViaDisk(ctx context.Context, resolvedURL string) (AudioBuffer, error) {
	tmp, err := t.download(ctx, resolvedURL)
	if err != nil {
		return AudioBuffer{}, &TranscodeError{Input: redact(resolvedURL), Err: err}
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("transcoder: failed to remove temp input %s: %v", tmp, err)
		}
	}()

	return t.Transcode(ctx, tmp)
}

func (t *Transcoder) download(ctx context.Context, rawURL string) (string, error) {
	out, err := os.CreateTemp(t.tempDir, "vidscribe-*.media")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := out.Name()
	ok := false
	defer func() {
		out.Close()
		if !ok {
			os.Remove(name)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	start := time.Now()
	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	log.Printf("transcoder: staged %d bytes to %s in %v", n, name, time.Since(start))
	ok = true
	return name, nil
}

// redact drops the query string of capability URLs so signatures never reach logs.
func redact(input string) string {
	if i := strings.IndexByte(input, '?'); i >= 0 && strings.Contains(input[:i], "://") {
		return input[:i] + "?…"
	}
	return input
}
