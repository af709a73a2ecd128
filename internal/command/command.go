// Package command runs external tools (yt-dlp, ffmpeg, whisper-cli) behind a
// small interface so callers can substitute fakes in tests.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts external programs.
//
// Run returns an error only when the process could not be started or was
// killed because ctx ended. A process that ran and exited non-zero is reported
// through Result.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	LookPath(name string) (string, error)
}

// ErrNotFound is returned by LookPath when the tool is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Stdin, when set, is connected to the child's standard input.
	Stdin io.Reader
}

func (e Exec) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

func (e Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if e.Stdin != nil {
		cmd.Stdin = e.Stdin
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		// a killed process must not leak partial output to the caller
		if ctx.Err() != nil {
			return Result{Stderr: res.Stderr, ExitCode: -1}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}
