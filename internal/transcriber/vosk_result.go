package transcriber

import (
	"encoding/json"
	"fmt"
)

type voskResult struct {
	Text string `json:"text"`
}

// parseVoskResult pulls the text out of a vosk result document.
func parseVoskResult(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", nil
	}
	var r voskResult
	if err := json.Unmarshal(doc, &r); err != nil {
		return "", fmt.Errorf("parse recognizer result: %w", err)
	}
	return r.Text, nil
}
