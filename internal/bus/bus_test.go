package bus

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/vidscribe/vidscribe/internal/pipeline"
)

// shortDir keeps socket paths under the unix socket length limit.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "vs")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestPidFile(t *testing.T) {
	e := Endpoint{Dir: filepath.Join(t.TempDir(), "run")}

	t.Run("no pid file", func(t *testing.T) {
		if err := e.CheckExistingDaemon(); err != nil {
			t.Errorf("CheckExistingDaemon() error = %v", err)
		}
	})

	t.Run("current process", func(t *testing.T) {
		if err := e.CreatePidFile(); err != nil {
			t.Fatalf("CreatePidFile() error = %v", err)
		}
		defer e.RemovePidFile()

		data, _ := os.ReadFile(e.PidPath())
		if string(data) != strconv.Itoa(os.Getpid()) {
			t.Errorf("pid file = %q", data)
		}
		if err := e.CheckExistingDaemon(); err == nil {
			t.Error("CheckExistingDaemon() should fail while the process is alive")
		}
	})

	t.Run("stale and garbage pid files", func(t *testing.T) {
		for _, content := range []string{"99999999", "not-a-pid"} {
			if err := os.WriteFile(e.PidPath(), []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := e.CheckExistingDaemon(); err != nil {
				t.Errorf("CheckExistingDaemon(%q) error = %v", content, err)
			}
		}
	})
}

func TestPaths(t *testing.T) {
	e, err := DefaultEndpoint()
	if err != nil {
		t.Skipf("no cache dir: %v", err)
	}
	if filepath.Base(e.SockPath()) != SockName || filepath.Base(e.PidPath()) != PidName {
		t.Errorf("paths = %s, %s", e.SockPath(), e.PidPath())
	}
	if filepath.Base(e.Dir) != "vidscribe" {
		t.Errorf("Dir = %s", e.Dir)
	}
}

func TestSendRoundTrip(t *testing.T) {
	e := Endpoint{Dir: shortDir(t)}
	ln, err := e.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	got := make(chan Request, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		var req Request
		if err := ReadMessage(bufio.NewReader(c), &req); err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		got <- req
		WriteMessage(c, Response{OK: true, Result: &pipeline.TranscriptionResult{Text: "hello", LanguageUsed: "en"}})
	}()

	resp, err := e.Send(context.Background(), Request{Op: OpTranscribe, Source: "https://video/abc", Language: "en"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !resp.OK || resp.Result == nil || resp.Result.Text != "hello" {
		t.Errorf("resp = %+v", resp)
	}
	req := <-got
	if req.Op != OpTranscribe || req.Source != "https://video/abc" {
		t.Errorf("server got %+v", req)
	}
}

func TestSendCancelClosesConnection(t *testing.T) {
	e := Endpoint{Dir: shortDir(t)}
	ln, err := e.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	closed := make(chan struct{})
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		r := bufio.NewReader(c)
		var req Request
		ReadMessage(r, &req)
		// never answer; wait for the client to hang up
		if _, err := r.ReadByte(); err != nil {
			close(closed)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = e.Send(ctx, Request{Op: OpTranscribe})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline exceeded", err)
	}

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Error("server did not observe the disconnect")
	}
}

func TestSendNoDaemon(t *testing.T) {
	e := Endpoint{Dir: shortDir(t)}
	if _, err := e.Send(context.Background(), Request{Op: OpStatus}); err == nil {
		t.Error("Send() without a listener expected error")
	}
}

func TestReadMessage(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte("\n"))
	}()
	var req Request
	if err := ReadMessage(bufio.NewReader(server), &req); err == nil {
		t.Error("ReadMessage() of empty line expected error")
	}
}
