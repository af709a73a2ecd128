// Package whisper keeps the ggml model files used by the batch engine.
package whisper

import "strings"

// ModelInfo describes one ggml model file
type ModelInfo struct {
	ID           string // tier, with ".en" for english-only variants
	Filename     string
	Size         string
	SizeBytes    int64 // used for progress when the server omits Content-Length
	Multilingual bool
}

// published at huggingface.co/ggerganov/whisper.cpp
var catalog = []ModelInfo{
	{ID: "tiny.en", Filename: "ggml-tiny.en.bin", Size: "75MB", SizeBytes: 75_000_000},
	{ID: "base.en", Filename: "ggml-base.en.bin", Size: "142MB", SizeBytes: 142_000_000},
	{ID: "small.en", Filename: "ggml-small.en.bin", Size: "466MB", SizeBytes: 466_000_000},
	{ID: "medium.en", Filename: "ggml-medium.en.bin", Size: "1.5GB", SizeBytes: 1_500_000_000},

	{ID: "tiny", Filename: "ggml-tiny.bin", Size: "75MB", SizeBytes: 75_000_000, Multilingual: true},
	{ID: "base", Filename: "ggml-base.bin", Size: "142MB", SizeBytes: 142_000_000, Multilingual: true},
	{ID: "small", Filename: "ggml-small.bin", Size: "466MB", SizeBytes: 466_000_000, Multilingual: true},
	{ID: "medium", Filename: "ggml-medium.bin", Size: "1.5GB", SizeBytes: 1_500_000_000, Multilingual: true},
	{ID: "large-v3", Filename: "ggml-large-v3.bin", Size: "3GB", SizeBytes: 3_000_000_000, Multilingual: true},
}

var byID = func() map[string]ModelInfo {
	m := make(map[string]ModelInfo, len(catalog))
	for _, info := range catalog {
		m[info.ID] = info
	}
	return m
}()

// DefaultBaseURL is where model files are fetched from.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Lookup returns the catalog entry for id.
func Lookup(id string) (ModelInfo, bool) {
	info, ok := byID[id]
	return info, ok
}

// Catalog returns every known model.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}

// ModelFor picks the model id for a size tier and language. English uses the
// english-only variant when one exists; every other language needs a
// multilingual model. A tier that already names a variant is returned as is.
func ModelFor(tier, lang string) string {
	tier = strings.TrimSpace(tier)
	if tier == "" {
		tier = "base"
	}
	if strings.HasSuffix(tier, ".en") {
		if lang == "en" {
			return tier
		}
		return strings.TrimSuffix(tier, ".en")
	}
	if lang == "en" {
		if _, ok := byID[tier+".en"]; ok {
			return tier + ".en"
		}
	}
	return tier
}
