// Package testutil holds fakes shared by package tests: a scripted tool
// runner and a model archive server.
package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/media"
)

// ToolRunner fakes external tools. Each tool, keyed by executable base name,
// replays its queued results in order and repeats the last one; a tool with
// nothing queued exits 127.
type ToolRunner struct {
	mu      sync.Mutex
	missing map[string]bool
	results map[string][]command.Result
	calls   map[string][][]string
}

func NewToolRunner() *ToolRunner {
	return &ToolRunner{
		missing: map[string]bool{},
		results: map[string][]command.Result{},
		calls:   map[string][][]string{},
	}
}

// Missing makes LookPath fail for name.
func (r *ToolRunner) Missing(name string) *ToolRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[name] = true
	return r
}

// Queue replaces the results tool will return.
func (r *ToolRunner) Queue(tool string, results ...command.Result) *ToolRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[tool] = results
	return r
}

func (r *ToolRunner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[name] {
		return "", command.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (r *ToolRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tool := filepath.Base(name)
	r.calls[tool] = append(r.calls[tool], args)
	queue := r.results[tool]
	if len(queue) == 0 {
		return command.Result{ExitCode: 127}, nil
	}
	res := queue[0]
	if len(queue) > 1 {
		r.results[tool] = queue[1:]
	}
	return res, nil
}

// Calls returns the argument lists tool was run with, without the name.
func (r *ToolRunner) Calls(tool string) [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls[tool]...)
}

func (r *ToolRunner) Count(tool string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls[tool])
}

// WAV returns seconds of canonical silence.
func WAV(seconds int) []byte {
	return media.EncodeWAV(make([]byte, seconds*media.SampleRate*media.BytesPerSample))
}

// ZipArchive builds an in-memory zip of name -> content.
func ZipArchive(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ArchiveServer answers every request with the same status and body and
// counts the requests.
type ArchiveServer struct {
	*httptest.Server
	hits atomic.Int32
}

func ServeArchive(t testing.TB, status int, body []byte) *ArchiveServer {
	t.Helper()
	s := &ArchiveServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ArchiveServer) Hits() int { return int(s.hits.Load()) }
