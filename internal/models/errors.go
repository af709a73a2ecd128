package models

import "fmt"

// ModelReason classifies install failures.
type ModelReason string

const (
	ReasonDownloadFailed   ModelReason = "download_failed"
	ReasonExtractionFailed ModelReason = "extraction_failed"
)

// ModelError is fatal for the request that triggered the install.
type ModelError struct {
	Reason   ModelReason
	Language string
	Err      error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model %s: %s", e.Language, e.Reason)
	}
	return fmt.Sprintf("model %s: %s: %v", e.Language, e.Reason, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
