package models

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vidscribe/vidscribe/internal/testutil"
)

const testFolder = "vosk-model-small-hi-0.22"

func newTestManager(t *testing.T, url string, dirs ...string) *Manager {
	t.Helper()
	if len(dirs) == 0 {
		dirs = []string{t.TempDir()}
	}
	m, err := NewManager(dirs, []Archive{{Language: "hi", Folder: testFolder, URL: url}})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func modelArchive(t *testing.T) []byte {
	return testutil.ZipArchive(t, map[string]string{
		testFolder + "/am/final.mdl":    "acoustic",
		testFolder + "/conf/model.conf": "--sample-frequency=16000",
	})
}

func TestNewManagerRequiresDirs(t *testing.T) {
	if _, err := NewManager(nil, DefaultArchives()); err == nil {
		t.Fatal("NewManager(nil) expected error")
	}
}

func TestDefaultArchives(t *testing.T) {
	found := false
	for _, a := range DefaultArchives() {
		if a.Language == "hi" {
			found = true
			if a.Folder != testFolder {
				t.Errorf("hi folder = %s, want %s", a.Folder, testFolder)
			}
			if !strings.HasSuffix(a.URL, testFolder+".zip") {
				t.Errorf("hi url = %s", a.URL)
			}
		}
	}
	if !found {
		t.Fatal("no hi archive in defaults")
	}
}

func TestProbeSearchesAllDirs(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	if err := os.MkdirAll(filepath.Join(second, testFolder), 0755); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, "http://unused", first, second)
	model, ok := m.Probe("hi")
	if !ok {
		t.Fatal("Probe() did not find model in second dir")
	}
	if model.LocalPath != filepath.Join(second, testFolder) {
		t.Errorf("LocalPath = %s", model.LocalPath)
	}
	if !model.Present {
		t.Error("Present = false, want true")
	}
}

func TestProbeDirIsModelFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), testFolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, "http://unused", t.TempDir(), dir)
	model, ok := m.Probe("hi")
	if !ok || model.LocalPath != dir {
		t.Fatalf("Probe() = %+v, %v", model, ok)
	}
}

func TestLocateInstallsOnce(t *testing.T) {
	srv := testutil.ServeArchive(t, http.StatusOK, modelArchive(t))
	base := t.TempDir()
	m := newTestManager(t, srv.URL+"/model.zip", base)

	first, err := m.Locate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if first.Present {
		t.Error("first Locate() Present = true, want false")
	}
	want := filepath.Join(base, testFolder)
	if first.LocalPath != want {
		t.Errorf("LocalPath = %s, want %s", first.LocalPath, want)
	}
	if _, err := os.Stat(filepath.Join(want, "conf", "model.conf")); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}

	second, err := m.Locate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("second Locate() error = %v", err)
	}
	if !second.Present {
		t.Error("second Locate() Present = false, want true")
	}
	if got := srv.Hits(); got != 1 {
		t.Errorf("downloads = %d, want 1", got)
	}

	// only the model folder remains; archive and staging dirs are gone
	entries, _ := os.ReadDir(base)
	if len(entries) != 1 || entries[0].Name() != testFolder {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("base dir entries = %v, want [%s]", names, testFolder)
	}
}

func TestLocateConcurrent(t *testing.T) {
	srv := testutil.ServeArchive(t, http.StatusOK, modelArchive(t))
	m := newTestManager(t, srv.URL+"/model.zip")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Locate(context.Background(), "hi"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Locate() error = %v", err)
	}
	if got := srv.Hits(); got != 1 {
		t.Errorf("downloads = %d, want 1", got)
	}
}

func TestLocateArchiveWithoutTopFolder(t *testing.T) {
	body := testutil.ZipArchive(t, map[string]string{"am/final.mdl": "acoustic"})
	srv := testutil.ServeArchive(t, http.StatusOK, body)
	base := t.TempDir()
	m := newTestManager(t, srv.URL, base)

	model, err := m.Locate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(model.LocalPath, "am", "final.mdl")); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
}

func TestLocateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   func(t *testing.T) []byte
		reason ModelReason
	}{
		{"not found", http.StatusNotFound, func(*testing.T) []byte { return []byte("nope") }, ReasonDownloadFailed},
		{"empty body", http.StatusOK, func(*testing.T) []byte { return nil }, ReasonDownloadFailed},
		{"corrupt archive", http.StatusOK, func(*testing.T) []byte { return []byte("not a zip") }, ReasonExtractionFailed},
		{"path traversal", http.StatusOK, func(t *testing.T) []byte {
			return testutil.ZipArchive(t, map[string]string{"../evil.txt": "x"})
		}, ReasonExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.ServeArchive(t, tt.status, tt.body(t))
			base := t.TempDir()
			m := newTestManager(t, srv.URL, base)

			_, err := m.Locate(context.Background(), "hi")
			var me *ModelError
			if !errors.As(err, &me) {
				t.Fatalf("Locate() error = %v, want *ModelError", err)
			}
			if me.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", me.Reason, tt.reason)
			}
			if _, ok := m.Probe("hi"); ok {
				t.Error("model reported present after failed install")
			}
			entries, _ := os.ReadDir(base)
			if len(entries) != 0 {
				t.Errorf("leftover files after failure: %d", len(entries))
			}
		})
	}
}

func TestLocateUnknownLanguage(t *testing.T) {
	m := newTestManager(t, "http://unused")
	_, err := m.Locate(context.Background(), "mr")
	var me *ModelError
	if !errors.As(err, &me) || me.Reason != ReasonDownloadFailed {
		t.Fatalf("Locate(mr) error = %v, want download_failed", err)
	}
	if me.Language != "mr" {
		t.Errorf("Language = %s", me.Language)
	}
}

func TestListAndRemove(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, testFolder), 0755); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, "http://unused", base)

	list := m.List()
	if len(list) != 1 || !list[0].Present {
		t.Fatalf("List() = %+v", list)
	}
	if err := m.Remove("hi"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := m.Probe("hi"); ok {
		t.Error("model still present after Remove()")
	}
	if err := m.Remove("hi"); err == nil {
		t.Error("Remove() of missing model expected error")
	}
}
