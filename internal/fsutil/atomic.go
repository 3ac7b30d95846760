// Package fsutil holds the file-writing primitives shared by the stores.
//
// Every file mxguide produces is written to a temp file in the destination
// directory and renamed over the target, so a reader (or a crashed run)
// observes either the previous content or the new content, never a torn file.
package fsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// DefaultFileMode is used when a caller passes a zero mode.
const DefaultFileMode os.FileMode = 0o644

// DefaultDirMode is used for directories created on demand.
const DefaultDirMode os.FileMode = 0o755

var ErrRoundTrip = errors.New("round-trip validation failed")

// WriteFileAtomic writes data to path via temp file + rename. The parent
// directory must exist.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	if mode == 0 {
		mode = DefaultFileMode
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// MarshalJSON encodes v with two-space indentation and without HTML
// escaping, so descriptions containing <, > or & stay readable.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v and writes it atomically to path. The encoded bytes are
// checked once more before the rename so a value that cannot round-trip
// never replaces a good file.
func WriteJSON(path string, v any, mode os.FileMode) ([]byte, error) {
	data, err := MarshalJSON(v)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, ErrRoundTrip
	}
	if err := WriteFileAtomic(path, data, mode); err != nil {
		return nil, err
	}
	return data, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
