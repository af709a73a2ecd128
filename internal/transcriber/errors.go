package transcriber

import (
	"errors"
	"fmt"
)

// EngineErrorKind classifies adapter failures.
type EngineErrorKind string

const (
	// Unintelligible: the service answered but produced no confident text.
	Unintelligible EngineErrorKind = "unintelligible"
	// ServiceUnavailable: network, auth or service-side failure.
	ServiceUnavailable EngineErrorKind = "service_unavailable"
	// DecodeFailed: a local engine could not run or decode.
	DecodeFailed EngineErrorKind = "decode_failed"
)

// EngineError is returned by adapters. Unintelligible and ServiceUnavailable
// may be retried by the caller; nothing in this package retries them.
type EngineError struct {
	Kind   EngineErrorKind
	Engine Kind
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Engine, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Recoverable reports whether retrying, possibly with another engine, could
// succeed.
func (e *EngineError) Recoverable() bool {
	return e.Kind == Unintelligible || e.Kind == ServiceUnavailable
}

func engineError(engine Kind, kind EngineErrorKind, err error) error {
	return &EngineError{Kind: kind, Engine: engine, Err: err}
}

// KindOf returns the EngineErrorKind carried by err, or "" if none.
func KindOf(err error) EngineErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
