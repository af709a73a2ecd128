package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/command"
)

// MediaSource is the result of one resolution. ResolvedURL is a short-lived
// capability URL; it belongs to a single acquisition attempt and is never cached.
type MediaSource struct {
	SourceURL   string
	ResolvedURL string
	ResolvedAt  time.Time
}

// Resolver turns a page URL into a direct audio URL using yt-dlp.
type Resolver struct {
	runner  command.Runner
	tool    string
	timeout time.Duration
	now     func() time.Time
}

func NewResolver(runner command.Runner, tool string, timeout time.Duration) *Resolver {
	if tool == "" {
		tool = "yt-dlp"
	}
	return &Resolver{runner: runner, tool: tool, timeout: timeout, now: time.Now}
}

// resolveArgs selects best audio, prints the URL only, and never downloads or
// expands playlists.
func resolveArgs(sourceURL string) []string {
	return []string{
		"-f", "bestaudio/best",
		"--get-url",
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		sourceURL,
	}
}

// Resolve runs the resolution tool once. Retrying is left to the caller.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (MediaSource, error) {
	path, err := r.runner.LookPath(r.tool)
	if err != nil {
		return MediaSource{}, &ResolutionError{Reason: ReasonToolMissing, SourceURL: sourceURL, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.runner.Run(ctx, path, resolveArgs(sourceURL)...)
	if err != nil {
		return MediaSource{}, &ResolutionError{Reason: ReasonExtractionFailed, SourceURL: sourceURL, Err: err}
	}
	if res.ExitCode != 0 {
		return MediaSource{}, &ResolutionError{
			Reason:    ReasonExtractionFailed,
			SourceURL: sourceURL,
			Stderr:    strings.TrimSpace(string(res.Stderr)),
			Err:       fmt.Errorf("%s exited with status %d", r.tool, res.ExitCode),
		}
	}

	direct := firstHTTPURL(string(res.Stdout))
	if direct == "" {
		return MediaSource{}, &ResolutionError{
			Reason:    ReasonExtractionFailed,
			SourceURL: sourceURL,
			Err:       errors.New("no usable URL in tool output"),
		}
	}

	log.Printf("resolver: resolved %s in %v", sourceURL, time.Since(start))
	return MediaSource{SourceURL: sourceURL, ResolvedURL: direct, ResolvedAt: r.now()}, nil
}

// firstHTTPURL returns the first output line that is an absolute http(s) URL.
func firstHTTPURL(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Host == "" {
			continue
		}
		if u.Scheme == "http" || u.Scheme == "https" {
			return line
		}
	}
	return ""
}
