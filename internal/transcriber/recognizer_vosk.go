//go:build vosk

package transcriber

import (
	"errors"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

type voskBackend struct {
	mu     sync.Mutex
	models map[string]*vosk.VoskModel
}

// NewVoskBackend returns a backend that keeps each loaded model for the life
// of the process. Models are read-only once loaded and shared by recognizers.
func NewVoskBackend() RecognizerBackend {
	vosk.SetLogLevel(-1)
	return &voskBackend{models: make(map[string]*vosk.VoskModel)}
}

func (b *voskBackend) model(path string) (*vosk.VoskModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.models[path]; ok {
		return m, nil
	}
	m, err := vosk.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	b.models[path] = m
	return m, nil
}

func (b *voskBackend) NewRecognizer(modelPath string, sampleRate int) (Recognizer, error) {
	m, err := b.model(modelPath)
	if err != nil {
		return nil, err
	}
	rec, err := vosk.NewRecognizer(m, float64(sampleRate))
	if err != nil {
		return nil, err
	}
	return &voskRecognizer{rec: rec}, nil
}

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

func (r *voskRecognizer) Accept(frame []byte) (string, error) {
	switch r.rec.AcceptWaveform(frame) {
	case 0:
		return "", nil
	case -1:
		return "", errors.New("recognizer rejected frame")
	}
	return parseVoskResult(r.rec.Result())
}

func (r *voskRecognizer) Flush() (string, error) {
	return parseVoskResult(r.rec.FinalResult())
}

func (r *voskRecognizer) Close() error {
	r.rec.Free()
	return nil
}
