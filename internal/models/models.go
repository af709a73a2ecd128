// Package models manages offline speech models distributed as zip archives:
// finding them across candidate directories, and installing them on first use.
package models

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

// Archive describes where a language's model comes from and the folder name
// it unpacks to.
type Archive struct {
	Language string
	Folder   string
	URL      string
	Size     string // human readable, informational only
}

// OfflineModel is a model resolved for one language.
type OfflineModel struct {
	Language         string
	LocalPath        string
	SourceArchiveURL string
	// Present is true when the model was already on disk before the lookup.
	Present bool
}

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// streaming models published on alphacephei.com
var defaultArchives = []Archive{
	{Language: "en", Folder: "vosk-model-small-en-us-0.15", URL: "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip", Size: "40MB"},
	{Language: "hi", Folder: "vosk-model-small-hi-0.22", URL: "https://alphacephei.com/vosk/models/vosk-model-small-hi-0.22.zip", Size: "42MB"},
}

// DefaultArchives returns the built-in archive table.
func DefaultArchives() []Archive {
	out := make([]Archive, len(defaultArchives))
	copy(out, defaultArchives)
	return out
}

// Manager locates and installs archive models. The first directory in dirs is
// where new models are installed; the rest are probed for older installs.
//
// Installs of the same language are serialized within the process; different
// languages install in parallel. Across processes, extraction goes to a
// private staging directory that is renamed into place, so a prober never sees
// a half-extracted model.
type Manager struct {
	dirs       []string
	archives   map[string]Archive
	client     *http.Client
	onProgress ProgressFunc
	group      singleflight.Group
}

// Option customizes a Manager.
type Option func(*Manager)

func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

func WithProgress(fn ProgressFunc) Option {
	return func(m *Manager) { m.onProgress = fn }
}

// NewManager builds a manager over an ordered list of candidate directories.
func NewManager(dirs []string, archives []Archive, opts ...Option) (*Manager, error) {
	if len(dirs) == 0 {
		return nil, errors.New("models: at least one model directory is required")
	}
	m := &Manager{
		dirs:     append([]string(nil), dirs...),
		archives: make(map[string]Archive, len(archives)),
		client:   http.DefaultClient,
	}
	for _, a := range archives {
		m.archives[a.Language] = a
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dirs returns the candidate directories in probe order.
func (m *Manager) Dirs() []string {
	return append([]string(nil), m.dirs...)
}

// Archive returns the archive configured for a language.
func (m *Manager) Archive(lang string) (Archive, bool) {
	a, ok := m.archives[lang]
	return a, ok
}

// Languages returns the languages that have an archive configured, sorted.
func (m *Manager) Languages() []string {
	langs := make([]string, 0, len(m.archives))
	for l := range m.archives {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Probe looks for an installed model without downloading anything.
func (m *Manager) Probe(lang string) (OfflineModel, bool) {
	a, ok := m.archives[lang]
	if !ok {
		return OfflineModel{Language: lang}, false
	}
	model := OfflineModel{Language: lang, SourceArchiveURL: a.URL}
	for _, dir := range m.dirs {
		candidate := filepath.Join(dir, a.Folder)
		if isDir(candidate) {
			model.LocalPath = candidate
			model.Present = true
			return model, true
		}
		// a candidate dir may itself be the model folder
		if filepath.Base(filepath.Clean(dir)) == a.Folder && isDir(dir) {
			model.LocalPath = dir
			model.Present = true
			return model, true
		}
	}
	return model, false
}

// Locate returns the model for lang, downloading and extracting it into the
// first candidate directory if no install is found. A failed install is
// returned as a *ModelError; there is no fallback to another model.
func (m *Manager) Locate(ctx context.Context, lang string) (OfflineModel, error) {
	if model, ok := m.Probe(lang); ok {
		return model, nil
	}

	a, ok := m.archives[lang]
	if !ok {
		return OfflineModel{}, &ModelError{
			Reason:   ReasonDownloadFailed,
			Language: lang,
			Err:      fmt.Errorf("no model archive configured for language %q", lang),
		}
	}

	v, err, shared := m.group.Do(lang, func() (any, error) {
		// another caller may have finished the install while we waited
		if model, ok := m.Probe(lang); ok {
			return model, nil
		}
		return m.install(ctx, a)
	})
	if err != nil {
		return OfflineModel{}, err
	}
	if shared {
		log.Printf("models: joined in-flight install for %s", lang)
	}
	return v.(OfflineModel), nil
}

// List reports every configured language and whether it is installed.
func (m *Manager) List() []OfflineModel {
	out := make([]OfflineModel, 0, len(m.archives))
	for _, lang := range m.Languages() {
		model, _ := m.Probe(lang)
		out = append(out, model)
	}
	return out
}

// Remove deletes an installed model from whichever directory holds it.
func (m *Manager) Remove(lang string) error {
	model, ok := m.Probe(lang)
	if !ok {
		return fmt.Errorf("model not installed: %s", lang)
	}
	if err := os.RemoveAll(model.LocalPath); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}

func (m *Manager) install(ctx context.Context, a Archive) (OfflineModel, error) {
	base := m.dirs[0]
	if err := os.MkdirAll(base, 0755); err != nil {
		return OfflineModel{}, &ModelError{Reason: ReasonDownloadFailed, Language: a.Language, Err: fmt.Errorf("create models directory: %w", err)}
	}

	log.Printf("models: %s model not found, downloading %s", a.Language, a.URL)
	start := time.Now()

	zipPath, err := m.fetch(ctx, base, a)
	if err != nil {
		return OfflineModel{}, &ModelError{Reason: ReasonDownloadFailed, Language: a.Language, Err: err}
	}
	defer os.Remove(zipPath)

	dest := filepath.Join(base, a.Folder)
	if err := extractInto(zipPath, base, a.Folder); err != nil {
		return OfflineModel{}, &ModelError{Reason: ReasonExtractionFailed, Language: a.Language, Err: err}
	}

	log.Printf("models: installed %s model at %s in %v", a.Language, dest, time.Since(start))
	return OfflineModel{
		Language:         a.Language,
		LocalPath:        dest,
		SourceArchiveURL: a.URL,
		Present:          false,
	}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
