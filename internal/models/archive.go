package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// fetch downloads the archive into dir and returns the temp file path.
// The caller removes it once extraction is done.
func (m *Manager) fetch(ctx context.Context, dir string, a Archive) (string, error) {
	out, err := os.CreateTemp(dir, "model_"+a.Language+"-*.zip.downloading")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := out.Name()
	ok := false
	defer func() {
		out.Close()
		if !ok {
			os.Remove(tempPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return "", fmt.Errorf("failed to write: %w", writeErr)
			}
			downloaded += int64(n)
			if m.onProgress != nil {
				m.onProgress(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read: %w", err)
		}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if downloaded == 0 {
		return "", errors.New("download returned an empty body")
	}
	ok = true
	return tempPath, nil
}

// extractInto unpacks zipPath into base/folder. Entries are written to a
// staging directory next to the target and renamed into place when complete.
// Archives that carry folder as their top-level directory are unwrapped;
// archives with files at the root become the folder themselves.
func extractInto(zipPath, base, folder string) error {
	staging, err := os.MkdirTemp(base, ".extract-"+folder+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := unzip(zipPath, staging); err != nil {
		return err
	}

	src := filepath.Join(staging, folder)
	if !isDir(src) {
		src = staging
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read extracted archive: %w", err)
	}
	if len(entries) == 0 {
		return errors.New("archive is empty")
	}

	dest := filepath.Join(base, folder)
	if err := os.Rename(src, dest); err != nil {
		// another process may have installed it first
		if isDir(dest) {
			return nil
		}
		return fmt.Errorf("move model into place: %w", err)
	}
	return nil
}

func unzip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		if r != nil {
			r.Close()
		}
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(f.Name), err)
		}
		if err := writeEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	return out.Close()
}
