// Package playlist materializes crawl results as per-category M3U artifacts.
package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwb-index/jwb-index/internal/helpers"
)

// ErrWrite is the root of all artifact failures. Any directory creation or
// append failure is fatal to the whole run.
var ErrWrite = errors.New("playlist write failed")

const header = "#EXTM3U\n"

// Writer owns every playlist artifact of one run. The root category's
// playlist lands directly in the output directory; every descendant goes
// into one flat shared subdirectory, regardless of catalog depth. Files are
// opened lazily on first use, truncating whatever a previous run left at the
// same path, and only appended to for the rest of the run; each artifact is
// written only by the crawl step that owns its category.
type Writer struct {
	dir    string
	subDir string
	files  map[string]*os.File

	// Run totals for the end-of-run summary.
	Playlists int
	Entries   int
	Bytes     int64
}

// NewWriter returns a Writer rooted at dir with the given shared child
// subdirectory name (e.g. "jwb-E").
func NewWriter(dir, subDir string) *Writer {
	return &Writer{dir: dir, subDir: subDir, files: make(map[string]*os.File)}
}

// SubDir returns the shared child subdirectory name.
func (w *Writer) SubDir() string {
	return w.subDir
}

// FileName returns the artifact file name for a category key.
func FileName(key string) string {
	return helpers.Sanitise(key) + ".m3u"
}

// path returns where the artifact for a category lives on disk.
func (w *Writer) path(key string, root bool) string {
	if root {
		return filepath.Join(w.dir, FileName(key))
	}
	return filepath.Join(w.dir, w.subDir, FileName(key))
}

// Ensure opens the playlist artifact for a category if this run has not
// touched it yet, making the destination directory first. Every dispatched
// category gets an artifact even when it turns out empty.
func (w *Writer) Ensure(key string, root bool) error {
	_, err := w.file(key, root)
	return err
}

func (w *Writer) file(key string, root bool) (*os.File, error) {
	p := w.path(key, root)
	if f, ok := w.files[p]; ok {
		return f, nil
	}
	if err := helpers.MakeDirs(filepath.Dir(p)); err != nil {
		return nil, fmt.Errorf("%w: create directory %s: %w", ErrWrite, filepath.Dir(p), err)
	}
	// First open this run: drop any stale artifact from an earlier run.
	// The files map keeps the handle, so later writes append within the run.
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrWrite, p, err)
	}
	n, err := f.WriteString(header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write header to %s: %w", ErrWrite, p, err)
	}
	w.files[p] = f
	w.Playlists++
	w.Bytes += int64(n)
	return f, nil
}

// Append adds one (displayName, locator) entry to a category's artifact:
// a directive line with a zero duration placeholder, then the locator line.
func (w *Writer) Append(key string, root bool, displayName, locator string) error {
	f, err := w.file(key, root)
	if err != nil {
		return err
	}
	n, err := fmt.Fprintf(f, "#EXTINF:0, %s\n%s\n", displayName, locator)
	if err != nil {
		return fmt.Errorf("%w: append to %s: %w", ErrWrite, f.Name(), err)
	}
	w.Entries++
	w.Bytes += int64(n)
	return nil
}

// Close flushes and closes every open artifact. The first close error is
// reported after all files were attempted.
func (w *Writer) Close() error {
	var firstErr error
	for p, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: close %s: %w", ErrWrite, p, err)
		}
		delete(w.files, p)
	}
	return firstErr
}
