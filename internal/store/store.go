// Package store provides the file-backed record store: the single JSON
// document holding every error record.
//
// The file is persisted as
//
//	{"errors": [ {...}, {...} ]}
//
// Every save rewrites the whole document atomically (temp file + rename).
// There are no partial updates.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mxguide/internal/fsutil"
	"mxguide/internal/logging"
	"mxguide/internal/record"
)

var (
	ErrNotFound  = errors.New("record store not found")
	ErrMalformed = errors.New("record store is not valid JSON")
)

// Config configures a Store.
type Config struct {
	// Path is the main file.
	Path string

	// FileMode for written files. Zero uses fsutil.DefaultFileMode.
	FileMode os.FileMode

	Logger *slog.Logger
}

// Store reads and writes the main record file.
type Store struct {
	path     string
	fileMode os.FileMode
	logger   *slog.Logger
}

// New creates a Store for the file at cfg.Path. The file need not exist yet.
func New(cfg Config) *Store {
	return &Store{
		path:     cfg.Path,
		fileMode: cfg.FileMode,
		logger:   logging.Default(cfg.Logger).With("component", "store"),
	}
}

// Path returns the main file path.
func (s *Store) Path() string {
	return s.path
}

// Name returns the main file's base name, used in reports.
func (s *Store) Name() string {
	return filepath.Base(s.path)
}

// Exists reports whether the main file exists.
func (s *Store) Exists() bool {
	return fsutil.Exists(s.path)
}

// Load reads and parses the main file. A missing file returns ErrNotFound;
// unparseable content returns ErrMalformed.
func (s *Store) Load() (*record.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read record store: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc, nil
}

// Save atomically replaces the main file with doc. The parent directory is
// created if needed.
func (s *Store) Save(doc *record.Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), fsutil.DefaultDirMode); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if _, err := fsutil.WriteJSON(s.path, doc, s.fileMode); err != nil {
		return fmt.Errorf("write record store: %w", err)
	}
	s.logger.Debug("record store written", "path", s.path, "records", len(doc.Errors))
	return nil
}

// Decode parses a record store document. A missing "errors" key yields an
// empty store.
func Decode(data []byte) (*record.Document, error) {
	var doc record.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}
