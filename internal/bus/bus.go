// Package bus is the local control channel between the CLI and a running
// daemon: a unix socket carrying one JSON request and one JSON response per
// connection.
package bus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/vidscribe/vidscribe/internal/pipeline"
)

const SockName = "control.sock"
const PidName = "vidscribe.pid"
const ProtoVer = "1"

// Operations understood by the daemon.
const (
	OpTranscribe = "transcribe"
	OpStatus     = "status"
	OpVersion    = "version"
	OpQuit       = "quit"
)

// Request is one line sent by a client.
type Request struct {
	Op       string `json:"op"`
	Source   string `json:"source,omitempty"`
	File     bool   `json:"file,omitempty"`
	Language string `json:"language,omitempty"`
	Engine   string `json:"engine,omitempty"`
	Disk     bool   `json:"disk,omitempty"`
}

// Response is the single line the daemon answers with.
type Response struct {
	OK     bool                          `json:"ok"`
	Error  string                        `json:"error,omitempty"`
	Proto  string                        `json:"proto,omitempty"`
	Active int                           `json:"active,omitempty"`
	Result *pipeline.TranscriptionResult `json:"result,omitempty"`
}

// Endpoint is the directory holding the socket and pid file.
type Endpoint struct {
	Dir string
}

// DefaultEndpoint is ~/.cache/vidscribe
func DefaultEndpoint() (Endpoint, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Dir: filepath.Join(dir, "vidscribe")}, nil
}

func (e Endpoint) SockPath() string { return filepath.Join(e.Dir, SockName) }
func (e Endpoint) PidPath() string  { return filepath.Join(e.Dir, PidName) }

func (e Endpoint) Listen() (net.Listener, error) {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(e.SockPath()) // stale socket from last run
	return net.Listen("unix", e.SockPath())
}

func (e Endpoint) Dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", e.SockPath())
}

// Send performs one request. Cancelling ctx closes the connection, which the
// daemon treats as the client giving up on the request.
func (e Endpoint) Send(ctx context.Context, req Request) (Response, error) {
	c, err := e.Dial(ctx)
	if err != nil {
		return Response{}, err
	}
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	if err := WriteMessage(c, req); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := ReadMessage(bufio.NewReader(c), &resp); err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, err
	}
	return resp, nil
}

// WriteMessage writes v as a single JSON line.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ReadMessage reads one JSON line into v.
func ReadMessage(r *bufio.Reader, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return err
	}
	if len(strings.TrimSpace(string(line))) == 0 {
		return errors.New("empty message")
	}
	return json.Unmarshal(line, v)
}

func (e Endpoint) CheckExistingDaemon() error {
	pidData, err := os.ReadFile(e.PidPath())
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		return nil // invalid pid file, assume stale
	}
	if !isProcessAlive(pid) {
		return nil
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func (e Endpoint) CreatePidFile() error {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(e.PidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (e Endpoint) RemovePidFile() error {
	return os.Remove(e.PidPath())
}
