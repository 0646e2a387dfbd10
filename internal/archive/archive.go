// Package archive verifies and extracts the ZIP artifacts staged by the
// downloader.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CorruptError reports a structurally unreadable archive.
type CorruptError struct {
	Path   string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt archive %s: %s", e.Path, e.Reason)
}

// CheckZip walks the archive's central directory and reads every entry
// through. archive/zip validates the CRC as the stream is consumed, so a
// full read of each entry proves structural integrity. Deleting corrupt
// files is the caller's decision.
func CheckZip(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return &CorruptError{Path: path, Reason: err.Error()}
	}
	defer reader.Close()

	for _, entry := range reader.File {
		rc, err := entry.Open()
		if err != nil {
			return &CorruptError{Path: path, Reason: fmt.Sprintf("entry %s: %v", entry.Name, err)}
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return &CorruptError{Path: path, Reason: fmt.Sprintf("entry %s: %v", entry.Name, err)}
		}
	}
	return nil
}

// ExtractZip streams every entry of the archive into destDir, creating
// directories as needed and overwriting existing targets. A failing entry
// aborts the extraction; entries already extracted are left in place.
func ExtractZip(path, destDir string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return &CorruptError{Path: path, Reason: err.Error()}
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrap(err, "creating staging directory")
	}

	for _, entry := range reader.File {
		if err := extractEntry(entry, destDir); err != nil {
			return errors.Wrapf(err, "extracting entry %s from %s", entry.Name, filepath.Base(path))
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	// Reject entries escaping the staging directory.
	target := filepath.Join(destDir, filepath.FromSlash(entry.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return errors.Errorf("illegal entry path %q", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ListZips returns the *.zip files directly under dir, sorted by name.
func ListZips(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return nil, errors.Wrap(err, "listing archives")
	}
	return matches, nil
}
