// Package memory provides an in-memory chunk.Manager. It backs split dry
// runs and tests; nothing it holds outlives the process.
package memory

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"mxguide/internal/chunk"
	"mxguide/internal/logging"
)

type Config struct {
	// Prefix names chunk files. Empty uses "chunk".
	Prefix string

	// Logger for structured logging. If nil, logging is disabled.
	// The manager scopes this logger with component="chunk-manager".
	Logger *slog.Logger
}

// Manager keeps chunks and the index in memory, keyed by file name.
type Manager struct {
	mu     sync.Mutex
	prefix string
	chunks map[string]chunk.Chunk
	index  *chunk.Index

	logger *slog.Logger
}

func NewManager(cfg Config) *Manager {
	if cfg.Prefix == "" {
		cfg.Prefix = "chunk"
	}
	return &Manager{
		prefix: cfg.Prefix,
		chunks: make(map[string]chunk.Chunk),
		logger: logging.Default(cfg.Logger).With("component", "chunk-manager", "type", "memory"),
	}
}

func (m *Manager) WriteChunk(c chunk.Chunk) (chunk.IndexEntry, error) {
	if c.Number < 1 {
		return chunk.IndexEntry{}, fmt.Errorf("invalid chunk number %d", c.Number)
	}
	name := chunk.FileName(m.prefix, c.Number)
	c.Count = len(c.Errors)
	c.Errors = slices.Clone(c.Errors)

	m.mu.Lock()
	m.chunks[name] = c
	m.mu.Unlock()

	return chunk.IndexEntry{File: name, Count: c.Count}, nil
}

func (m *Manager) WriteIndex(idx chunk.Index) error {
	idx.Chunks = slices.Clone(idx.Chunks)
	m.mu.Lock()
	m.index = &idx
	m.mu.Unlock()
	return nil
}

func (m *Manager) ReadIndex() (chunk.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		if len(m.chunks) == 0 {
			return chunk.Index{}, chunk.ErrChunkDirNotFound
		}
		return chunk.Index{}, chunk.ErrIndexNotFound
	}
	idx := *m.index
	idx.Chunks = slices.Clone(idx.Chunks)
	return idx, nil
}

func (m *Manager) ReadChunk(file string) (chunk.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[file]
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: %s", chunk.ErrChunkNotFound, file)
	}
	c.Errors = slices.Clone(c.Errors)
	return c, nil
}

func (m *Manager) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chunks) == 0 && m.index == nil {
		return nil, chunk.ErrChunkDirNotFound
	}
	names := make([]string, 0, len(m.chunks))
	for name := range m.chunks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *Manager) Prune(keep []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for name := range m.chunks {
		if !slices.Contains(keep, name) {
			delete(m.chunks, name)
			removed = append(removed, name)
		}
	}
	slices.Sort(removed)
	if len(removed) > 0 {
		m.logger.Debug("pruned chunks", "files", removed)
	}
	return removed, nil
}

// Chunks returns the number of chunks held.
func (m *Manager) Chunks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// HasIndex reports whether an index has been written.
func (m *Manager) HasIndex() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index != nil
}

var _ chunk.Manager = (*Manager)(nil)
