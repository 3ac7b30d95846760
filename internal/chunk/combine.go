package chunk

import (
	"errors"
	"fmt"
	"log/slog"

	"mxguide/internal/logging"
	"mxguide/internal/record"
)

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	Manager Manager
	Logger  *slog.Logger
}

// Reader rebuilds a record store from the index and its chunks.
type Reader struct {
	manager Manager
	logger  *slog.Logger
}

// CombineResult is the rebuilt record store plus what was noticed on the way.
type CombineResult struct {
	Records []record.Record

	// Chunks is the number of chunk files read.
	Chunks int

	// Duplicates lists codes that occur more than once, in first-occurrence
	// order. Duplicates do not fail a combine.
	Duplicates []string
}

func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.Manager == nil {
		return nil, errors.New("chunk reader: manager is required")
	}
	return &Reader{
		manager: cfg.Manager,
		logger:  logging.Default(cfg.Logger).With("component", "chunk-reader"),
	}, nil
}

// Combine reads the index and appends each listed chunk's records in index
// order. A missing index or chunk directory is fatal, as is a listed chunk
// that is missing or unparseable.
func (r *Reader) Combine() (CombineResult, error) {
	idx, err := r.manager.ReadIndex()
	if err != nil {
		return CombineResult{}, err
	}

	records := make([]record.Record, 0, idx.TotalErrors)
	for _, entry := range idx.Chunks {
		c, err := r.manager.ReadChunk(entry.File)
		if err != nil {
			return CombineResult{}, fmt.Errorf("read chunk %s: %w", entry.File, err)
		}
		r.logger.Debug("chunk loaded", "file", entry.File, "count", len(c.Errors))
		records = append(records, c.Errors...)
	}

	result := CombineResult{
		Records:    records,
		Chunks:     len(idx.Chunks),
		Duplicates: record.Duplicates(records),
	}
	if len(result.Duplicates) > 0 {
		r.logger.Warn("duplicate codes found", "codes", result.Duplicates)
	}
	r.logger.Info("combine complete", "chunks", result.Chunks, "records", len(records))
	return result, nil
}
