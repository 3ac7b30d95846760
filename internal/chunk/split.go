package chunk

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"mxguide/internal/logging"
	"mxguide/internal/record"
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	Manager Manager

	// Policy decides chunk boundaries. Nil uses a RecordCountPolicy of MaxPerFile.
	Policy RotationPolicy

	// MaxPerFile is recorded in the index. Zero uses DefaultMaxPerFile.
	MaxPerFile int

	// KeepStale disables removal of chunk files left over from a previous split.
	KeepStale bool

	Logger *slog.Logger
}

// Writer partitions a record store into chunks.
type Writer struct {
	cfg    WriterConfig
	logger *slog.Logger
}

// SplitResult reports what a split produced.
type SplitResult struct {
	Index Index

	// Pruned lists stale chunk files removed after the index was written.
	Pruned []string
}

func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.Manager == nil {
		return nil, errors.New("chunk writer: manager is required")
	}
	if cfg.MaxPerFile == 0 {
		cfg.MaxPerFile = DefaultMaxPerFile
	}
	if cfg.MaxPerFile < 1 {
		return nil, fmt.Errorf("chunk writer: max per file must be at least 1, got %d", cfg.MaxPerFile)
	}
	if cfg.Policy == nil {
		cfg.Policy = NewRecordCountPolicy(cfg.MaxPerFile)
	}
	return &Writer{
		cfg:    cfg,
		logger: logging.Default(cfg.Logger).With("component", "chunk-writer"),
	}, nil
}

// Order returns records grouped by category in ascending byte order of the
// category name, keeping the original relative order inside each category.
// Records without a category sort as record.UnknownCategory.
func Order(records []record.Record) []record.Record {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b record.Record) int {
		return cmp.Compare(a.Category(), b.Category())
	})
	return ordered
}

// Split writes records as chunks followed by the index. Chunk boundaries are
// positional: a chunk may hold the tail of one category and the head of the
// next. An empty input writes nothing and returns an empty index.
func (w *Writer) Split(records []record.Record) (SplitResult, error) {
	if len(records) == 0 {
		w.logger.Info("no records to split")
		return SplitResult{Index: NewIndex(nil, w.cfg.MaxPerFile)}, nil
	}

	var (
		entries []IndexEntry
		buf     []record.Record
		state   = BufferState{Number: 1}
	)

	flush := func() error {
		c := Chunk{Number: state.Number, Count: len(buf), Errors: buf}
		entry, err := w.cfg.Manager.WriteChunk(c)
		if err != nil {
			return fmt.Errorf("write chunk %d: %w", state.Number, err)
		}
		w.logger.Debug("chunk written", "file", entry.File, "count", entry.Count)
		entries = append(entries, entry)
		buf = nil
		state = BufferState{Number: state.Number + 1}
		return nil
	}

	for _, rec := range Order(records) {
		if state.Records > 0 && w.cfg.Policy.ShouldRotate(state, rec) {
			if err := flush(); err != nil {
				return SplitResult{}, err
			}
		}
		buf = append(buf, rec)
		state.Records++
		state.Bytes += uint64(rec.Size())
	}
	if len(buf) > 0 {
		if err := flush(); err != nil {
			return SplitResult{}, err
		}
	}

	idx := NewIndex(entries, w.cfg.MaxPerFile)
	if err := w.cfg.Manager.WriteIndex(idx); err != nil {
		return SplitResult{}, fmt.Errorf("write index: %w", err)
	}

	result := SplitResult{Index: idx}
	if !w.cfg.KeepStale {
		pruned, err := w.cfg.Manager.Prune(idx.Files())
		if err != nil {
			return result, fmt.Errorf("prune stale chunks: %w", err)
		}
		result.Pruned = pruned
	}

	w.logger.Info("split complete",
		"chunks", idx.TotalChunks,
		"records", idx.TotalErrors,
		"max_per_file", idx.MaxPerFile,
		"pruned", len(result.Pruned))
	return result, nil
}
