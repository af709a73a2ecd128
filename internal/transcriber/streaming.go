package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vidscribe/vidscribe/internal/media"
	"github.com/vidscribe/vidscribe/internal/models"
)

// DefaultFrameSamples is the number of samples fed per step.
const DefaultFrameSamples = 4000

// ModelLocator finds or installs the archive model for a language.
type ModelLocator interface {
	Locate(ctx context.Context, lang string) (models.OfflineModel, error)
}

// RecognizerBackend opens recognizers over a model directory.
type RecognizerBackend interface {
	NewRecognizer(modelPath string, sampleRate int) (Recognizer, error)
}

// StreamingAdapter feeds the buffer to an incremental recognizer in fixed
// frames and joins the segments it emits.
type StreamingAdapter struct {
	models       ModelLocator
	backend      RecognizerBackend
	frameSamples int
}

func NewStreamingAdapter(models ModelLocator, backend RecognizerBackend, frameSamples int) *StreamingAdapter {
	if frameSamples <= 0 {
		frameSamples = DefaultFrameSamples
	}
	return &StreamingAdapter{models: models, backend: backend, frameSamples: frameSamples}
}

func (a *StreamingAdapter) Kind() Kind { return KindOfflineStreaming }

func (a *StreamingAdapter) Transcribe(ctx context.Context, audio media.AudioBuffer, lang string) (Transcript, error) {
	if audio.Len() == 0 {
		return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, errNoAudio)
	}

	model, err := a.models.Locate(ctx, lang)
	if err != nil {
		return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, err)
	}

	rec, err := a.backend.NewRecognizer(model.LocalPath, media.SampleRate)
	if err != nil {
		return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, fmt.Errorf("open recognizer: %w", err))
	}
	session := NewDecodeSession(model.LocalPath, a.frameSamples, rec)
	defer session.Close()

	start := time.Now()
	frames := audio.Frames(a.frameSamples)
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, err)
		}
		if err := session.Feed(frame); err != nil {
			return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, fmt.Errorf("frame %d: %w", i, err))
		}
	}

	text, err := session.Flush()
	if err != nil {
		return Transcript{}, engineError(KindOfflineStreaming, DecodeFailed, fmt.Errorf("flush: %w", err))
	}

	log.Printf("streaming: decoded %d frames (%d segments) with %s in %v", len(frames), len(session.Partials()), model.LocalPath, time.Since(start))
	return Transcript{Text: text, Language: lang}, nil
}

// ErrStreamingUnavailable is returned by the default backend when the binary
// was built without the vosk tag.
var ErrStreamingUnavailable = errors.New("streaming recognizer not available: rebuild with -tags vosk")
