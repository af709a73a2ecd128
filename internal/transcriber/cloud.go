package transcriber

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/media"
)

// CloudProvider sends a WAV file to a hosted recognition API.
type CloudProvider interface {
	Name() string
	Recognize(ctx context.Context, wav []byte, lang string) (string, error)
}

// CloudAdapter wraps a hosted API behind the Adapter contract.
type CloudAdapter struct {
	provider CloudProvider
}

func NewCloudAdapter(provider CloudProvider) *CloudAdapter {
	return &CloudAdapter{provider: provider}
}

func (a *CloudAdapter) Kind() Kind { return KindCloud }

func (a *CloudAdapter) Transcribe(ctx context.Context, audio media.AudioBuffer, lang string) (Transcript, error) {
	if audio.Len() == 0 {
		return Transcript{}, engineError(KindCloud, Unintelligible, errNoAudio)
	}

	start := time.Now()
	text, err := a.provider.Recognize(ctx, audio.WAV(), lang)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Join(ctx.Err(), err)
		}
		log.Printf("cloud-adapter: %s request failed after %v: %v", a.provider.Name(), duration, err)
		return Transcript{}, engineError(KindCloud, ServiceUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Transcript{}, engineError(KindCloud, Unintelligible, errors.New(a.provider.Name()+" returned no transcript"))
	}

	log.Printf("cloud-adapter: %s transcribed %v of audio in %v", a.provider.Name(), audio.Duration(), duration)
	return Transcript{Text: text, Language: lang}, nil
}
