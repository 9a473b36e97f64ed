package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/leca/ci-smoke/internal/model"
)

// Render produces one report format.
type Render func(w io.Writer, run *model.Run) error

// Writer stores report files under a base directory.
type Writer struct {
	basePath string
}

// NewWriter creates a Writer rooted at basePath.
func NewWriter(basePath string) *Writer {
	return &Writer{basePath: basePath}
}

// Path resolves name against the base directory; absolute names are kept.
func (w *Writer) Path(name string) string {
	if filepath.IsAbs(name) || w.basePath == "" {
		return name
	}
	return filepath.Join(w.basePath, name)
}

// Ensure resolves name like Path and creates its parent directory.
func (w *Writer) Ensure(name string) (string, error) {
	dst := w.Path(name)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return dst, nil
}

// Write renders run into name using atomic write (temp file + rename), so a
// CI artifact upload never sees a half-written report. It returns the final
// path.
func (w *Writer) Write(name string, run *model.Run, render Render) (string, error) {
	dst, err := w.Ensure(name)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if err := render(tmp, run); err != nil {
		tmp.Close()
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""
	return dst, nil
}
