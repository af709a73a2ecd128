package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestExec_LookPathMissing(t *testing.T) {
	_, err := Exec{}.LookPath("vidscribe-definitely-not-installed")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExec_RunCapturesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := Exec{}.Run(context.Background(), "sh", "-c", "printf out; printf err >&2; exit 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "out" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "out")
	}
	if string(res.Stderr) != "err" {
		t.Errorf("stderr = %q, want %q", res.Stderr, "err")
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestExec_RunWithStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	res, err := Exec{Stdin: strings.NewReader("piped")}.Run(context.Background(), "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "piped" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "piped")
	}
}

func TestExec_RunCancelledDiscardsOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Exec{}.Run(ctx, "sh", "-c", "printf partial; sleep 5")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(res.Stdout) != 0 {
		t.Errorf("expected partial stdout to be discarded, got %q", res.Stdout)
	}
}
