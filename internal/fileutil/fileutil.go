// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// dirPermissions is used when WriteAtomic creates the parent directory.
const dirPermissions = 0o750

// readError marks a failure of the source reader during WriteAtomic.
type readError struct {
	err error
}

func (e *readError) Error() string { return "reading source: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// errReader tags non-EOF read errors so they can be told apart from disk errors.
type errReader struct {
	r io.Reader
}

func (e errReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &readError{err: err}
	}
	return n, err
}

// IsReadError reports whether err was caused by the reader passed to WriteAtomic.
func IsReadError(err error) bool {
	var re *readError
	return errors.As(err, &re)
}

// WriteAtomic copies r into a temporary file next to path and renames it over
// path once complete. Readers of path see either the old file or the full new
// one. The parent directory is created if absent.
func WriteAtomic(path string, r io.Reader, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, errReader{r: r}); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "wiki" -> false (name)
//   - "./wiki.yaml" -> true (relative path)
//   - "/etc/wikipdf.yaml" -> true (absolute)
//   - "C:\config\wiki.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsHTMLFile returns true if path has an .html or .htm extension (case-insensitive).
func IsHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}
