//go:build !vosk

package transcriber

type unavailableBackend struct{}

// NewVoskBackend returns a backend that always fails; the vosk recognizer
// needs cgo and libvosk and is only compiled with -tags vosk.
func NewVoskBackend() RecognizerBackend {
	return unavailableBackend{}
}

func (unavailableBackend) NewRecognizer(string, int) (Recognizer, error) {
	return nil, ErrStreamingUnavailable
}
