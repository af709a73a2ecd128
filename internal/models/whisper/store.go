package whisper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// Store is a directory of ggml model files.
type Store struct {
	Dir        string
	BaseURL    string
	Client     *http.Client
	OnProgress ProgressFunc

	group singleflight.Group
}

// NewStore returns a store rooted at dir that downloads from DefaultBaseURL.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, BaseURL: DefaultBaseURL, Client: http.DefaultClient}
}

// Path returns where a model file lives, whether or not it is installed.
func (s *Store) Path(id string) (string, error) {
	info, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("unknown model: %s", id)
	}
	return filepath.Join(s.Dir, info.Filename), nil
}

// IsInstalled reports whether a non-empty model file exists
func (s *Store) IsInstalled(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Installed returns the ids of installed models in catalog order
func (s *Store) Installed() []string {
	var ids []string
	for _, m := range catalog {
		if s.IsInstalled(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Ensure returns the path to an installed model, downloading it first if
// needed. Concurrent calls for the same id share one download.
func (s *Store) Ensure(ctx context.Context, id string) (string, error) {
	path, err := s.Path(id)
	if err != nil {
		return "", err
	}
	if s.IsInstalled(id) {
		return path, nil
	}
	_, err, _ = s.group.Do(id, func() (any, error) {
		if s.IsInstalled(id) {
			return nil, nil
		}
		log.Printf("whisper: model %s not installed, downloading", id)
		return nil, s.Download(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Download fetches a model file. The file is written to a ".downloading"
// sibling and renamed when complete.
func (s *Store) Download(ctx context.Context, id string) error {
	info, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("unknown model: %s", id)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	destPath := filepath.Join(s.Dir, info.Filename)
	tempPath := destPath + ".downloading"

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		out.Close()
		os.Remove(tempPath)
	}()

	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/"+info.Filename, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = info.SizeBytes
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write: %w", writeErr)
			}
			downloaded += int64(n)
			if s.OnProgress != nil {
				s.OnProgress(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}

// Remove deletes an installed model
func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if !s.IsInstalled(id) {
		return fmt.Errorf("model not installed: %s", id)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}
