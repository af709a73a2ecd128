package media

import (
	"fmt"
	"strings"
)

// ResolutionReason says why a source URL could not be resolved.
type ResolutionReason string

const (
	ReasonToolMissing      ResolutionReason = "tool_missing"
	ReasonExtractionFailed ResolutionReason = "extraction_failed"
)

// ResolutionError is returned by Resolver.Resolve.
type ResolutionError struct {
	Reason    ResolutionReason
	SourceURL string
	Stderr    string
	Err       error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve %s: %s", e.SourceURL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ReasonProcessFailed is the only transcode failure reason.
const ReasonProcessFailed = "process_failed"

// TranscodeError is returned when the transcoding process fails or its output
// is not canonical PCM. Stderr is the tool's diagnostic text, verbatim.
type TranscodeError struct {
	Input    string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode: %s", ReasonProcessFailed)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// accessMarkers are fragments ffmpeg prints when an expired or revoked media
// URL is refused by the origin.
var accessMarkers = []string{
	"403 Forbidden",
	"410 Gone",
	"HTTP error 403",
	"HTTP error 410",
}

// AccessDenied reports whether the origin refused the resolved URL, meaning
// it has expired and must be resolved again.
func (e *TranscodeError) AccessDenied() bool {
	text := e.Stderr
	if e.Err != nil {
		text += "\n" + e.Err.Error()
	}
	for _, m := range accessMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
