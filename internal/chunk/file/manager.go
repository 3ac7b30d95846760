// Package file provides a chunk.Manager backed by a directory of JSON files.
//
// Directory layout:
//
//	<dir>/<prefix>_001.json      chunk 1
//	<dir>/<prefix>_001.json.br   optional sidecars (.br, .gz, .zst)
//	<dir>/index.json             index, written after every chunk
//
// Every file is replaced atomically (temp file + rename).
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"mxguide/internal/chunk"
	"mxguide/internal/fsutil"
	"mxguide/internal/logging"
)

var ErrMissingDir = errors.New("file chunk manager dir is required")

type Config struct {
	// Dir is the chunk directory. It is created on the first write.
	Dir string

	// Prefix names chunk files: <prefix>_NNN.json.
	Prefix string

	// FileMode for written files. Zero uses fsutil.DefaultFileMode.
	FileMode os.FileMode

	// Compress lists the sidecar encodings written next to every chunk and
	// the index. Sidecars of encodings not listed are removed on write so a
	// stale sidecar never outlives the file it was derived from.
	Compress []Encoding

	// Logger for structured logging. If nil, logging is disabled.
	// The manager scopes this logger with component="chunk-manager".
	Logger *slog.Logger
}

// Manager stores chunks as files in a single directory.
type Manager struct {
	cfg    Config
	logger *slog.Logger
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, ErrMissingDir
	}
	if cfg.Prefix == "" {
		return nil, errors.New("file chunk manager prefix is required")
	}
	return &Manager{
		cfg:    cfg,
		logger: logging.Default(cfg.Logger).With("component", "chunk-manager", "type", "file", "dir", cfg.Dir),
	}, nil
}

// Dir returns the chunk directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

// IndexPath returns the path of the index file.
func (m *Manager) IndexPath() string {
	return filepath.Join(m.cfg.Dir, chunk.IndexFileName)
}

func (m *Manager) WriteChunk(c chunk.Chunk) (chunk.IndexEntry, error) {
	if c.Number < 1 {
		return chunk.IndexEntry{}, fmt.Errorf("invalid chunk number %d", c.Number)
	}
	c.Count = len(c.Errors)
	name := chunk.FileName(m.cfg.Prefix, c.Number)
	if err := m.writeJSON(name, c); err != nil {
		return chunk.IndexEntry{}, err
	}
	return chunk.IndexEntry{File: name, Count: c.Count}, nil
}

func (m *Manager) WriteIndex(idx chunk.Index) error {
	if idx.Chunks == nil {
		idx.Chunks = []chunk.IndexEntry{}
	}
	if err := m.writeJSON(chunk.IndexFileName, idx); err != nil {
		return err
	}
	m.logger.Debug("index written", "chunks", idx.TotalChunks, "records", idx.TotalErrors)
	return nil
}

func (m *Manager) writeJSON(name string, v any) error {
	if err := os.MkdirAll(m.cfg.Dir, fsutil.DefaultDirMode); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}
	path := filepath.Join(m.cfg.Dir, name)
	data, err := fsutil.WriteJSON(path, v, m.cfg.FileMode)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return m.writeSidecars(path, data)
}

func (m *Manager) writeSidecars(path string, data []byte) error {
	for _, enc := range Encodings {
		sidecar := path + enc.Ext()
		if !slices.Contains(m.cfg.Compress, enc) {
			if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove stale sidecar: %w", err)
			}
			continue
		}
		compressed, err := Compress(enc, data)
		if err != nil {
			return fmt.Errorf("compress %s: %w", filepath.Base(sidecar), err)
		}
		if err := fsutil.WriteFileAtomic(sidecar, compressed, m.cfg.FileMode); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(sidecar), err)
		}
	}
	return nil
}

func (m *Manager) ReadIndex() (chunk.Index, error) {
	if !fsutil.IsDir(m.cfg.Dir) {
		return chunk.Index{}, fmt.Errorf("%w: %s", chunk.ErrChunkDirNotFound, m.cfg.Dir)
	}
	data, err := os.ReadFile(m.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return chunk.Index{}, fmt.Errorf("%w: %s", chunk.ErrIndexNotFound, m.IndexPath())
		}
		return chunk.Index{}, err
	}
	var idx chunk.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return chunk.Index{}, fmt.Errorf("%w: %s: %v", chunk.ErrMalformed, chunk.IndexFileName, err)
	}
	return idx, nil
}

func (m *Manager) ReadChunk(file string) (chunk.Chunk, error) {
	if file != filepath.Base(file) {
		return chunk.Chunk{}, fmt.Errorf("%w: %s is not a plain file name", chunk.ErrChunkNotFound, file)
	}
	data, err := os.ReadFile(filepath.Join(m.cfg.Dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return chunk.Chunk{}, fmt.Errorf("%w: %s", chunk.ErrChunkNotFound, file)
		}
		return chunk.Chunk{}, err
	}
	var c chunk.Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return chunk.Chunk{}, fmt.Errorf("%w: %s: %v", chunk.ErrMalformed, file, err)
	}
	return c, nil
}

// List returns the chunk files present in the directory, sorted by name.
func (m *Manager) List() ([]string, error) {
	if !fsutil.IsDir(m.cfg.Dir) {
		return nil, fmt.Errorf("%w: %s", chunk.ErrChunkDirNotFound, m.cfg.Dir)
	}
	matches, err := doublestar.Glob(os.DirFS(m.cfg.Dir), chunk.Pattern(m.cfg.Prefix), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	names := matches[:0]
	for _, name := range matches {
		if chunk.IsChunkFile(m.cfg.Prefix, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Prune removes chunk files not in keep, together with their sidecars.
func (m *Manager) Prune(keep []string) ([]string, error) {
	names, err := m.List()
	if err != nil {
		if errors.Is(err, chunk.ErrChunkDirNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var removed []string
	for _, name := range names {
		if slices.Contains(keep, name) {
			continue
		}
		path := filepath.Join(m.cfg.Dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		for _, enc := range Encodings {
			if err := os.Remove(path + enc.Ext()); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("remove %s: %w", name+enc.Ext(), err)
			}
		}
		removed = append(removed, name)
	}
	if len(removed) > 0 {
		m.logger.Info("removed stale chunks", "files", removed)
	}
	return removed, nil
}

var _ chunk.Manager = (*Manager)(nil)
