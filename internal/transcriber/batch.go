package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/media"
	"github.com/vidscribe/vidscribe/internal/models/whisper"
)

// WhisperModels provides ggml model files, installing them on demand.
type WhisperModels interface {
	Ensure(ctx context.Context, id string) (string, error)
}

// BatchOptions tune the whisper-cli invocation.
type BatchOptions struct {
	Tool    string // whisper-cli executable
	Tier    string // model size tier, "base" if empty
	Threads int    // 0 lets whisper-cli decide
	TempDir string
}

// BatchAdapter decodes the whole buffer in one whisper-cli run.
type BatchAdapter struct {
	runner command.Runner
	models WhisperModels
	opts   BatchOptions
}

func NewBatchAdapter(runner command.Runner, models WhisperModels, opts BatchOptions) *BatchAdapter {
	if opts.Tool == "" {
		opts.Tool = "whisper-cli"
	}
	if opts.Tier == "" {
		opts.Tier = "base"
	}
	return &BatchAdapter{runner: runner, models: models, opts: opts}
}

func (a *BatchAdapter) Kind() Kind { return KindOfflineBatch }

func (a *BatchAdapter) Transcribe(ctx context.Context, audio media.AudioBuffer, lang string) (Transcript, error) {
	if audio.Len() == 0 {
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, errNoAudio)
	}

	modelID := whisper.ModelFor(a.opts.Tier, lang)
	modelPath, err := a.models.Ensure(ctx, modelID)
	if err != nil {
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, fmt.Errorf("whisper model %s: %w", modelID, err))
	}

	if _, err := a.runner.LookPath(a.opts.Tool); err != nil {
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, fmt.Errorf("%s not found: install whisper.cpp first", a.opts.Tool))
	}

	tmp, err := os.CreateTemp(a.opts.TempDir, "vidscribe-*.wav")
	if err != nil {
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = tmp.Write(audio.WAV())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, fmt.Errorf("write temp file: %w", err))
	}

	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", modelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", tmpPath,
	}
	if a.opts.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.opts.Threads))
	}

	start := time.Now()
	res, err := a.runner.Run(ctx, a.opts.Tool, args...)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Join(ctx.Err(), err)
		}
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed, fmt.Errorf("whisper-cli: %w", err))
	}
	if res.ExitCode != 0 {
		log.Printf("whisper-cpp: command failed after %v (exit %d)\nstderr: %s", duration, res.ExitCode, res.Stderr)
		return Transcript{}, engineError(KindOfflineBatch, DecodeFailed,
			fmt.Errorf("whisper-cli exited with status %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr))))
	}

	out := Transcript{
		Text:     joinText(strings.Split(string(res.Stdout), "\n")),
		Language: lang,
	}
	if detected, p, ok := detectedLanguage(string(res.Stderr)); ok {
		out.Language = detected
		out.Probability = p
	}

	log.Printf("whisper-cpp: model %s transcribed %v of audio in %v", modelID, audio.Duration(), duration)
	return out, nil
}

var detectedRe = regexp.MustCompile(`auto-detected language:\s*([a-z]{2,3})\s*\(p\s*=\s*([0-9.]+)\)`)

// detectedLanguage extracts whisper's language guess from its diagnostic output.
func detectedLanguage(stderr string) (string, float64, bool) {
	m := detectedRe.FindStringSubmatch(stderr)
	if m == nil {
		return "", 0, false
	}
	p, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], p, true
}
