package transcriber

import (
	"errors"
	"strings"
)

// Recognizer is one incremental decoder instance. Accept consumes a frame and
// returns the text of a segment the decoder completed on that frame, if any.
// Flush ends the stream and returns whatever text is still pending.
type Recognizer interface {
	Accept(frame []byte) (string, error)
	Flush() (string, error)
	Close() error
}

// DecodeSession tracks one streaming decode. Partials are kept in the order
// the recognizer produced them; the final text exists only after Flush.
type DecodeSession struct {
	ModelPath string
	FrameSize int // samples per frame

	rec       Recognizer
	partials  []string
	finalText string
	flushed   bool
}

var errSessionFlushed = errors.New("decode session already flushed")

func NewDecodeSession(modelPath string, frameSize int, rec Recognizer) *DecodeSession {
	return &DecodeSession{ModelPath: modelPath, FrameSize: frameSize, rec: rec}
}

// Feed passes one frame to the recognizer and records any non-empty partial.
func (s *DecodeSession) Feed(frame []byte) error {
	if s.flushed {
		return errSessionFlushed
	}
	text, err := s.rec.Accept(frame)
	if err != nil {
		return err
	}
	if text = strings.TrimSpace(text); text != "" {
		s.partials = append(s.partials, text)
	}
	return nil
}

// Flush drains the recognizer and returns the session's full text.
func (s *DecodeSession) Flush() (string, error) {
	if s.flushed {
		return "", errSessionFlushed
	}
	tail, err := s.rec.Flush()
	if err != nil {
		return "", err
	}
	s.flushed = true
	s.finalText = joinText(append(append([]string(nil), s.partials...), tail))
	return s.finalText, nil
}

// Partials returns the segments collected so far, in arrival order.
func (s *DecodeSession) Partials() []string {
	return append([]string(nil), s.partials...)
}

// Text returns the final text, and false before Flush.
func (s *DecodeSession) Text() (string, bool) {
	return s.finalText, s.flushed
}

func (s *DecodeSession) Close() error {
	return s.rec.Close()
}
