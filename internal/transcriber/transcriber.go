// Package transcriber turns canonical PCM audio into text. Three engine
// variants share one Adapter contract, and a Router picks one per language.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidscribe/vidscribe/internal/media"
)

// Kind identifies an engine variant.
type Kind string

const (
	KindCloud            Kind = "Cloud"
	KindOfflineBatch     Kind = "OfflineBatch"
	KindOfflineStreaming Kind = "OfflineStreaming"
)

// ParseKind accepts either the kind name or the short config form
// ("cloud", "batch", "streaming"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cloud":
		return KindCloud, nil
	case "batch", "offlinebatch", "offline-batch":
		return KindOfflineBatch, nil
	case "streaming", "offlinestreaming", "offline-streaming":
		return KindOfflineStreaming, nil
	}
	return "", fmt.Errorf("unknown engine %q (want cloud, batch or streaming)", s)
}

// Transcript is what an adapter produces for one buffer.
type Transcript struct {
	Text string
	// Language and Probability are the engine's own language guess, when it
	// reports one.
	Language    string
	Probability float64
}

// Adapter is implemented by every engine. Audio is always 16 kHz mono s16le;
// adapters do not re-validate it.
type Adapter interface {
	Kind() Kind
	Transcribe(ctx context.Context, audio media.AudioBuffer, lang string) (Transcript, error)
}

var errNoAudio = errors.New("no audio to decode")

func joinText(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
