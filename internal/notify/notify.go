package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/pipeline"
)

const appName = "vidscribe"

type Notifier interface {
	Notify(title, message string)
	Error(msg string)
}

// New returns the notifier named by notifications.type.
func New(kind string, runner command.Runner) (Notifier, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "desktop":
		return Desktop{Runner: runner}, nil
	case "log":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("unknown notification type: %s", kind)
	}
}

// Result reports a finished transcription of source.
func Result(n Notifier, source string, res pipeline.TranscriptionResult) {
	if res.Failed() {
		n.Error(fmt.Sprintf("%s: %s", res.ErrorKind, source))
		return
	}
	n.Notify("Transcription finished",
		fmt.Sprintf("%s [%s, %s]", preview(res.Text, 80), res.LanguageUsed, res.EngineUsed))
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-1]) + "…"
}

// Desktop sends notifications through notify-send.
type Desktop struct {
	Runner command.Runner
}

func (d Desktop) Notify(title, message string) {
	d.send("-a", appName, title, message)
}

func (d Desktop) Error(msg string) {
	d.send("-a", appName, "-u", "critical", "vidscribe error", msg)
}

func (d Desktop) send(args ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := d.Runner.Run(ctx, "notify-send", args...)
	if err != nil {
		log.Printf("Failed to send notification: %v", err)
		return
	}
	if res.ExitCode != 0 {
		log.Printf("Failed to send notification: notify-send exited with %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) Notify(title, message string) {
	log.Printf("Notification: %s: %s", title, message)
}

func (Log) Error(msg string) {
	log.Printf("Notification: vidscribe error: %s", msg)
}

// Nop is a Notifier that does absolutely nothing.
type Nop struct{}

func (Nop) Notify(title, message string) {}
func (Nop) Error(msg string)             {}
