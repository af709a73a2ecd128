package daemon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/vidscribe/vidscribe/internal/bus"
	"github.com/vidscribe/vidscribe/internal/notify"
	"github.com/vidscribe/vidscribe/internal/pipeline"
	"github.com/vidscribe/vidscribe/internal/transcriber"
)

// Transcriber runs one request to completion.
type Transcriber interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.TranscriptionResult
}

// Daemon serves transcription requests over the control socket. Requests run
// concurrently and share one model store; a client hanging up cancels its
// request.
type Daemon struct {
	endpoint bus.Endpoint

	mu       sync.RWMutex
	svc      Transcriber
	notifier notify.Notifier
	active   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(endpoint bus.Endpoint, svc Transcriber) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		endpoint: endpoint,
		svc:      svc,
		notifier: notify.Nop{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetTranscriber swaps the service used for new requests; requests already
// running keep the one they started with.
func (d *Daemon) SetTranscriber(svc Transcriber) {
	d.mu.Lock()
	d.svc = svc
	d.mu.Unlock()
}

// SetNotifier sets where finished requests are reported.
func (d *Daemon) SetNotifier(n notify.Notifier) {
	d.mu.Lock()
	d.notifier = n
	d.mu.Unlock()
}

// Active returns the number of requests in flight.
func (d *Daemon) Active() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// Context is cancelled when the daemon shuts down.
func (d *Daemon) Context() context.Context { return d.ctx }

func (d *Daemon) Stop() { d.cancel() }

func (d *Daemon) Run() error {
	if err := d.endpoint.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := d.endpoint.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := d.endpoint.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer d.endpoint.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon started, listening on %s", d.endpoint.SockPath())

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("Shutdown requested, waiting for %d request(s)", d.Active())
				d.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.handle(c)
		}()
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	r := bufio.NewReader(c)
	var req bus.Request
	if err := bus.ReadMessage(r, &req); err != nil {
		log.Printf("Client read error: %v", err)
		bus.WriteMessage(c, bus.Response{Error: "read_error: " + err.Error()})
		return
	}

	switch req.Op {
	case bus.OpTranscribe:
		bus.WriteMessage(c, d.transcribe(c, r, req))
	case bus.OpStatus:
		bus.WriteMessage(c, bus.Response{OK: true, Proto: bus.ProtoVer, Active: d.Active()})
	case bus.OpVersion:
		bus.WriteMessage(c, bus.Response{OK: true, Proto: bus.ProtoVer})
	case bus.OpQuit:
		bus.WriteMessage(c, bus.Response{OK: true})
		d.cancel()
	default:
		log.Printf("Unknown op: %q", req.Op)
		bus.WriteMessage(c, bus.Response{Error: fmt.Sprintf("unknown op %q", req.Op)})
	}
}

func (d *Daemon) transcribe(c net.Conn, r *bufio.Reader, req bus.Request) bus.Response {
	if req.Source == "" {
		return bus.Response{Error: "missing source"}
	}
	var engine transcriber.Kind
	if req.Engine != "" {
		kind, err := transcriber.ParseKind(req.Engine)
		if err != nil {
			return bus.Response{Error: err.Error()}
		}
		engine = kind
	}

	ctx, cancel := context.WithCancel(d.ctx)
	defer cancel()

	// the client sends nothing after its request; any read result means it
	// went away
	go func() {
		if _, err := r.ReadByte(); err != nil && err != io.EOF && ctx.Err() == nil {
			log.Printf("Client connection error: %v", err)
		}
		cancel()
	}()

	d.mu.Lock()
	svc, notifier := d.svc, d.notifier
	d.active++
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.active--
		d.mu.Unlock()
	}()

	res := svc.Run(ctx, pipeline.Request{
		Source:   req.Source,
		File:     req.File,
		Language: req.Language,
		Engine:   engine,
		Disk:     req.Disk,
	})
	if ctx.Err() != nil {
		if d.ctx.Err() == nil {
			log.Printf("Client disconnected, request for %s abandoned", req.Source)
		}
	} else {
		notify.Result(notifier, req.Source, res)
	}
	return bus.Response{OK: !res.Failed(), Result: &res}
}
