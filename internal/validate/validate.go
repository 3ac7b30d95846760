// Package validate checks the integrity of a dataset: the record store and,
// when present, the chunk directory and its index.
//
// Validation is read-only and exhaustive. Every problem found is recorded as
// an issue and checking continues; the dataset passes only when no issue was
// recorded. Issues are produced in a fixed order (record store, chunks by
// name, index) so repeated runs over unchanged files report identical lists.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"mxguide/internal/chunk"
	"mxguide/internal/logging"
	"mxguide/internal/record"
	"mxguide/internal/store"
)

// Config configures a validation run.
type Config struct {
	Store *store.Store

	// Chunks is the chunk directory. Nil skips chunk and index checks.
	Chunks chunk.Manager

	// MaxPerFile is the largest number of records a chunk may hold. Zero
	// uses chunk.DefaultMaxPerFile.
	MaxPerFile int

	// RequiredFields every record must carry. Nil uses record.DefaultRequiredFields.
	RequiredFields []string

	Logger *slog.Logger
}

// ChunkStatus is the outcome for one chunk file.
type ChunkStatus struct {
	File  string `json:"file"`
	Count int    `json:"count"`
	OK    bool   `json:"ok"`
}

// Report is the result of a validation run.
type Report struct {
	// MainFile is the record store's base name.
	MainFile string `json:"main_file"`

	// MainLoaded is true when the record store exists and parsed.
	MainLoaded  bool `json:"main_loaded"`
	MainRecords int  `json:"main_records"`

	// ChunkDir is true when the chunk directory exists.
	ChunkDir     bool          `json:"chunk_dir"`
	Chunks       []ChunkStatus `json:"chunks"`
	ChunkRecords int           `json:"chunk_records"`

	// Index is true when index.json exists.
	Index bool `json:"index"`

	Issues []string `json:"issues"`
}

// Passed reports whether no issue was found.
func (r Report) Passed() bool {
	return len(r.Issues) == 0
}

// Run validates the dataset. The returned error is reserved for failures
// that prevent validation from running at all; data problems are issues.
func Run(cfg Config) (Report, error) {
	if cfg.Store == nil {
		return Report{}, errors.New("validate: store is required")
	}
	if cfg.RequiredFields == nil {
		cfg.RequiredFields = record.DefaultRequiredFields
	}
	if cfg.MaxPerFile == 0 {
		cfg.MaxPerFile = chunk.DefaultMaxPerFile
	}
	logger := logging.Default(cfg.Logger).With("component", "validate")

	r := Report{MainFile: cfg.Store.Name()}
	checkStore(cfg, &r)

	if cfg.Chunks != nil {
		if err := checkChunks(cfg, &r); err != nil {
			return r, err
		}
	}

	logger.Info("validation complete",
		"records", r.MainRecords,
		"chunks", len(r.Chunks),
		"issues", len(r.Issues))
	return r, nil
}

func checkStore(cfg Config, r *Report) {
	doc, err := cfg.Store.Load()
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			r.Issues = append(r.Issues, r.MainFile+" not found")
		case errors.Is(err, store.ErrMalformed):
			r.Issues = append(r.Issues, fmt.Sprintf("%s: Invalid JSON - %s", r.MainFile, cause(err)))
		default:
			r.Issues = append(r.Issues, fmt.Sprintf("%s: %v", r.MainFile, err))
		}
		return
	}
	r.MainLoaded = true
	r.MainRecords = len(doc.Errors)

	if dups := record.Duplicates(doc.Errors); len(dups) > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("Duplicate codes in %s: %s", r.MainFile, formatList(dups)))
	}
	for i, rec := range doc.Errors {
		missing := rec.Missing(cfg.RequiredFields)
		if len(missing) == 0 {
			continue
		}
		id := strconv.Itoa(i)
		if code := rec.Code(); code != "" && rec.IsString(record.FieldCode) {
			id = code
		}
		r.Issues = append(r.Issues, fmt.Sprintf("Error %s: missing fields %s", id, formatList(missing)))
	}
}

func checkChunks(cfg Config, r *Report) error {
	names, err := cfg.Chunks.List()
	if err != nil {
		if errors.Is(err, chunk.ErrChunkDirNotFound) {
			return nil
		}
		return err
	}
	r.ChunkDir = true

	for _, name := range names {
		c, err := cfg.Chunks.ReadChunk(name)
		if err != nil {
			if errors.Is(err, chunk.ErrMalformed) {
				r.Issues = append(r.Issues, fmt.Sprintf("%s: Invalid JSON - %s", name, cause(err)))
			} else {
				r.Issues = append(r.Issues, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		count := len(c.Errors)
		r.ChunkRecords += count
		status := ChunkStatus{File: name, Count: count, OK: true}
		if count > cfg.MaxPerFile {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: %d errors (exceeds max %d)", name, count, cfg.MaxPerFile))
			status.OK = false
		}
		if c.Count != count {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: count is %d but holds %d errors", name, c.Count, count))
			status.OK = false
		}
		r.Chunks = append(r.Chunks, status)
	}

	idx, err := cfg.Chunks.ReadIndex()
	switch {
	case errors.Is(err, chunk.ErrIndexNotFound):
		return nil
	case errors.Is(err, chunk.ErrMalformed):
		r.Index = true
		r.Issues = append(r.Issues, fmt.Sprintf("%s: Invalid JSON - %s", chunk.IndexFileName, cause(err)))
		return nil
	case err != nil:
		return err
	}
	r.Index = true
	for _, p := range idx.Problems() {
		r.Issues = append(r.Issues, chunk.IndexFileName+": "+p)
	}
	for _, e := range idx.Chunks {
		if !slices.Contains(names, e.File) {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: lists %s which does not exist", chunk.IndexFileName, e.File))
		}
	}
	return nil
}

// cause strips the sentinel and path prefixes from a decode error so the
// issue reads "<file>: Invalid JSON - <parser message>".
func cause(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
