package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/media"
	"github.com/vidscribe/vidscribe/internal/models"
)

// samples returns a buffer of n silent samples.
func samples(n int) media.AudioBuffer {
	return media.NewAudioBuffer(make([]byte, n*media.BytesPerSample))
}

type fakeRunner struct {
	paths  map[string]string
	result command.Result
	err    error
	onRun  func(args []string)
	calls  [][]string
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", command.ErrNotFound
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.onRun != nil {
		f.onRun(args)
	}
	return f.result, f.err
}

type fakeWhisperModels struct {
	path string
	err  error
	ids  []string
}

func (f *fakeWhisperModels) Ensure(ctx context.Context, id string) (string, error) {
	f.ids = append(f.ids, id)
	return f.path, f.err
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"cloud", KindCloud},
		{"Batch", KindOfflineBatch},
		{"OfflineBatch", KindOfflineBatch},
		{"streaming", KindOfflineStreaming},
		{" offline-streaming ", KindOfflineStreaming},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseKind("gpu"); err == nil {
		t.Error("ParseKind(gpu) expected error")
	}
}

func TestBatchAdapter_Success(t *testing.T) {
	var wavHeader []byte
	runner := &fakeRunner{
		paths: map[string]string{"whisper-cli": "/usr/bin/whisper-cli"},
		result: command.Result{
			Stdout: []byte(" Hello there.\n General Kenobi.\n\n"),
			Stderr: []byte("whisper_full_with_state: auto-detected language: en (p = 0.973)\n"),
		},
	}
	runner.onRun = func(args []string) {
		data, err := os.ReadFile(argAfter(args, "-f"))
		if err != nil {
			t.Errorf("temp wav not readable during run: %v", err)
			return
		}
		wavHeader = data[:12]
	}
	store := &fakeWhisperModels{path: "/models/ggml-base.en.bin"}

	a := NewBatchAdapter(runner, store, BatchOptions{Threads: 4, TempDir: t.TempDir()})
	got, err := a.Transcribe(context.Background(), samples(16000), "en")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if got.Text != "Hello there. General Kenobi." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Language != "en" || got.Probability != 0.973 {
		t.Errorf("detection = %s %v", got.Language, got.Probability)
	}
	if len(store.ids) != 1 || store.ids[0] != "base.en" {
		t.Errorf("ensured models = %v, want [base.en]", store.ids)
	}

	args := runner.calls[0][1:]
	if argAfter(args, "-m") != store.path || argAfter(args, "-l") != "en" || argAfter(args, "-t") != "4" {
		t.Errorf("args = %v", args)
	}
	if string(wavHeader[:4]) != "RIFF" || string(wavHeader[8:12]) != "WAVE" {
		t.Errorf("temp file is not a wav: %q", wavHeader)
	}
	if _, err := os.Stat(argAfter(args, "-f")); !os.IsNotExist(err) {
		t.Error("temp wav not removed")
	}
}

func TestBatchAdapter_Failures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		store  *fakeWhisperModels
		audio  media.AudioBuffer
	}{
		{
			name:   "empty audio",
			runner: &fakeRunner{paths: map[string]string{"whisper-cli": "/bin/whisper-cli"}},
			store:  &fakeWhisperModels{path: "/m"},
			audio:  media.AudioBuffer{},
		},
		{
			name:   "tool missing",
			runner: &fakeRunner{},
			store:  &fakeWhisperModels{path: "/m"},
			audio:  samples(100),
		},
		{
			name:   "model download fails",
			runner: &fakeRunner{paths: map[string]string{"whisper-cli": "/bin/whisper-cli"}},
			store:  &fakeWhisperModels{err: errors.New("status 404")},
			audio:  samples(100),
		},
		{
			name: "non-zero exit",
			runner: &fakeRunner{
				paths:  map[string]string{"whisper-cli": "/bin/whisper-cli"},
				result: command.Result{ExitCode: 1, Stderr: []byte("failed to load model")},
			},
			store: &fakeWhisperModels{path: "/m"},
			audio: samples(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewBatchAdapter(tt.runner, tt.store, BatchOptions{TempDir: t.TempDir()})
			_, err := a.Transcribe(context.Background(), tt.audio, "en")
			if KindOf(err) != DecodeFailed {
				t.Fatalf("error = %v, want decode_failed", err)
			}
			var ee *EngineError
			errors.As(err, &ee)
			if ee.Engine != KindOfflineBatch || ee.Recoverable() {
				t.Errorf("EngineError = %+v", ee)
			}
		})
	}
}

func TestBatchAdapter_NonEnglishUsesMultilingualModel(t *testing.T) {
	runner := &fakeRunner{
		paths:  map[string]string{"whisper-cli": "/bin/whisper-cli"},
		result: command.Result{Stdout: []byte("bonjour")},
	}
	store := &fakeWhisperModels{path: "/m"}
	a := NewBatchAdapter(runner, store, BatchOptions{Tier: "small", TempDir: t.TempDir()})

	got, err := a.Transcribe(context.Background(), samples(10), "fr")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if store.ids[0] != "small" {
		t.Errorf("model = %s, want small", store.ids[0])
	}
	if got.Language != "fr" || got.Probability != 0 {
		t.Errorf("Language = %s, Probability = %v", got.Language, got.Probability)
	}
}

func TestDetectedLanguage(t *testing.T) {
	lang, p, ok := detectedLanguage("whisper_full_with_state: auto-detected language: hi (p = 0.512345)")
	if !ok || lang != "hi" || p != 0.512345 {
		t.Errorf("detectedLanguage() = %s %v %v", lang, p, ok)
	}
	if _, _, ok := detectedLanguage("main: processing"); ok {
		t.Error("detectedLanguage() matched unrelated output")
	}
}

type fakeProvider struct {
	text string
	err  error
	wav  []byte
	lang string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Recognize(ctx context.Context, wav []byte, lang string) (string, error) {
	f.wav, f.lang = wav, lang
	return f.text, f.err
}

func TestCloudAdapter(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := &fakeProvider{text: "  namaste  "}
		got, err := NewCloudAdapter(p).Transcribe(context.Background(), samples(160), "hi")
		if err != nil {
			t.Fatalf("Transcribe() error = %v", err)
		}
		if got.Text != "namaste" {
			t.Errorf("Text = %q", got.Text)
		}
		if p.lang != "hi" || string(p.wav[:4]) != "RIFF" {
			t.Errorf("provider got lang %q, wav %q", p.lang, p.wav[:4])
		}
	})

	tests := []struct {
		name string
		p    *fakeProvider
		want EngineErrorKind
	}{
		{"empty transcript", &fakeProvider{text: " "}, Unintelligible},
		{"service failure", &fakeProvider{err: errors.New("502 bad gateway")}, ServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCloudAdapter(tt.p).Transcribe(context.Background(), samples(160), "en")
			var ee *EngineError
			if !errors.As(err, &ee) || ee.Kind != tt.want {
				t.Fatalf("error = %v, want %s", err, tt.want)
			}
			if !ee.Recoverable() {
				t.Error("cloud failures should be recoverable")
			}
		})
	}
}

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("auth = %s", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		if r.FormValue("language") != "en" || r.FormValue("model") != "whisper-1" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"hello world"}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "")
	got, err := p.Recognize(context.Background(), media.EncodeWAV(make([]byte, 320)), "en")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("Recognize() = %q", got)
	}
}

func TestDeepgramProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token dg-key" {
			t.Errorf("auth = %s", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		if q.Get("language") != "en-US" || q.Get("model") != "nova-2" || q.Get("smart_format") != "true" {
			t.Errorf("query = %v", q)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body[:4]) != "RIFF" {
			t.Errorf("body is not wav")
		}
		io.WriteString(w, `{"results":{"channels":[{"alternatives":[{"transcript":"hello","confidence":0.9}]}]}}`)
	}))
	defer srv.Close()

	p := NewDeepgramProvider("dg-key", srv.URL, "")
	got, err := p.Recognize(context.Background(), media.EncodeWAV(make([]byte, 320)), "en")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Recognize() = %q", got)
	}
}

func TestDeepgramProvider_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`)
	}))
	defer srv.Close()

	p := NewDeepgramProvider("bad", srv.URL, "")
	_, err := p.Recognize(context.Background(), []byte("RIFF"), "en")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("Recognize() error = %v, want status 401", err)
	}
}

// scriptedRecognizer emits outputs[i] for the i-th frame and tail on flush.
type scriptedRecognizer struct {
	outputs []string
	tail    string
	frames  [][]byte
	closed  bool
}

func (r *scriptedRecognizer) Accept(frame []byte) (string, error) {
	i := len(r.frames)
	r.frames = append(r.frames, frame)
	if i < len(r.outputs) {
		return r.outputs[i], nil
	}
	return "", nil
}

func (r *scriptedRecognizer) Flush() (string, error) { return r.tail, nil }

func (r *scriptedRecognizer) Close() error {
	r.closed = true
	return nil
}

type fakeBackend struct {
	rec  *scriptedRecognizer
	err  error
	path string
	rate int
}

func (b *fakeBackend) NewRecognizer(path string, rate int) (Recognizer, error) {
	b.path, b.rate = path, rate
	if b.err != nil {
		return nil, b.err
	}
	return b.rec, nil
}

type fakeLocator struct {
	model models.OfflineModel
	err   error
	langs []string
}

func (f *fakeLocator) Locate(ctx context.Context, lang string) (models.OfflineModel, error) {
	f.langs = append(f.langs, lang)
	return f.model, f.err
}

func TestDecodeSession_PreservesOrder(t *testing.T) {
	rec := &scriptedRecognizer{
		outputs: []string{"", "zebra", "", "apple", "zebra", " "},
		tail:    "mango",
	}
	s := NewDecodeSession("/m", 4000, rec)
	for i := 0; i < 6; i++ {
		if err := s.Feed([]byte{byte(i), 0}); err != nil {
			t.Fatalf("Feed(%d) error = %v", i, err)
		}
	}
	if _, ok := s.Text(); ok {
		t.Error("Text() available before Flush")
	}

	got, err := s.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got != "zebra apple zebra mango" {
		t.Errorf("Flush() = %q", got)
	}
	if p := s.Partials(); len(p) != 3 {
		t.Errorf("Partials() = %v", p)
	}
	if err := s.Feed([]byte{0, 0}); err == nil {
		t.Error("Feed after Flush expected error")
	}
}

func TestStreamingAdapter_FramesAndJoin(t *testing.T) {
	rec := &scriptedRecognizer{outputs: []string{"first", "", "second"}, tail: "last"}
	backend := &fakeBackend{rec: rec}
	locator := &fakeLocator{model: models.OfflineModel{Language: "hi", LocalPath: "/models/vosk-hi"}}

	a := NewStreamingAdapter(locator, backend, 0)
	got, err := a.Transcribe(context.Background(), samples(10000), "hi")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if got.Text != "first second last" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(rec.frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(rec.frames))
	}
	wantSizes := []int{8000, 8000, 4000}
	for i, f := range rec.frames {
		if len(f) != wantSizes[i] {
			t.Errorf("frame %d = %d bytes, want %d", i, len(f), wantSizes[i])
		}
	}
	if backend.path != "/models/vosk-hi" || backend.rate != 16000 {
		t.Errorf("recognizer opened with %s @ %d", backend.path, backend.rate)
	}
	if !rec.closed {
		t.Error("recognizer not closed")
	}
	if locator.langs[0] != "hi" {
		t.Errorf("located %v", locator.langs)
	}
}

func TestStreamingAdapter_Failures(t *testing.T) {
	modelErr := &models.ModelError{Reason: models.ReasonDownloadFailed, Language: "mr"}

	t.Run("model install fails", func(t *testing.T) {
		a := NewStreamingAdapter(&fakeLocator{err: modelErr}, &fakeBackend{}, 0)
		_, err := a.Transcribe(context.Background(), samples(100), "mr")
		var me *models.ModelError
		if KindOf(err) != DecodeFailed || !errors.As(err, &me) {
			t.Fatalf("error = %v, want decode_failed wrapping ModelError", err)
		}
	})

	t.Run("backend unavailable", func(t *testing.T) {
		a := NewStreamingAdapter(&fakeLocator{}, &fakeBackend{err: ErrStreamingUnavailable}, 0)
		_, err := a.Transcribe(context.Background(), samples(100), "hi")
		if !errors.Is(err, ErrStreamingUnavailable) {
			t.Fatalf("error = %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := &scriptedRecognizer{}
		a := NewStreamingAdapter(&fakeLocator{}, &fakeBackend{rec: rec}, 0)
		_, err := a.Transcribe(ctx, samples(100), "hi")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v", err)
		}
		if !rec.closed {
			t.Error("recognizer not closed")
		}
	})
}

func TestParseVoskResult(t *testing.T) {
	got, err := parseVoskResult([]byte(`{"text" : "namaste duniya"}`))
	if err != nil || got != "namaste duniya" {
		t.Errorf("parseVoskResult() = %q, %v", got, err)
	}
	if got, _ := parseVoskResult(nil); got != "" {
		t.Errorf("parseVoskResult(nil) = %q", got)
	}
	if _, err := parseVoskResult([]byte("{")); err == nil {
		t.Error("expected parse error")
	}
}

type stubAdapter struct{ kind Kind }

func (s stubAdapter) Kind() Kind { return s.kind }

func (s stubAdapter) Transcribe(context.Context, media.AudioBuffer, string) (Transcript, error) {
	return Transcript{}, nil
}

func allAdapters() []Adapter {
	return []Adapter{stubAdapter{KindCloud}, stubAdapter{KindOfflineBatch}, stubAdapter{KindOfflineStreaming}}
}

func TestRouter_DefaultTable(t *testing.T) {
	r := NewRouter(allAdapters(), nil)
	tests := []struct {
		lang      string
		kind      Kind
		modelLang string
		fallback  bool
	}{
		{"en", KindOfflineBatch, "en", false},
		{"hi", KindOfflineStreaming, "hi", false},
		{"mr", KindOfflineStreaming, "mr", false},
		{"fr", KindOfflineBatch, "en", true},
		{"", KindOfflineBatch, "en", true},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			// same answer every time
			for i := 0; i < 3; i++ {
				route, err := r.Route(tt.lang, "")
				if err != nil {
					t.Fatalf("Route() error = %v", err)
				}
				if route.Kind != tt.kind || route.ModelLanguage != tt.modelLang || route.Fallback != tt.fallback {
					t.Errorf("Route(%q) = %+v", tt.lang, route)
				}
				if route.Adapter.Kind() != tt.kind {
					t.Errorf("adapter kind = %s", route.Adapter.Kind())
				}
			}
		})
	}
}

func TestRouter_Overrides(t *testing.T) {
	r := NewRouter(allAdapters(), map[string]Kind{"fr": KindCloud})

	route, err := r.Route("fr", "")
	if err != nil || route.Kind != KindCloud || route.ModelLanguage != "fr" || route.Fallback {
		t.Errorf("Route(fr) = %+v, %v", route, err)
	}

	route, err = r.Route("en", KindCloud)
	if err != nil || route.Kind != KindCloud {
		t.Errorf("Route(en, cloud) = %+v, %v", route, err)
	}

	if got := DefaultTable()["fr"]; got != "" {
		t.Errorf("override leaked into default table: %s", got)
	}
}

func TestRouter_MissingAdapter(t *testing.T) {
	r := NewRouter([]Adapter{stubAdapter{KindOfflineBatch}}, nil)
	if _, err := r.Route("hi", ""); err == nil {
		t.Error("Route(hi) without streaming adapter expected error")
	}
}

func TestJoinText(t *testing.T) {
	if got := joinText([]string{" a ", "", "b", "  "}); got != "a b" {
		t.Errorf("joinText() = %q", got)
	}
}

