// Package chunk defines the chunked representation of a record store.
//
// A record store is partitioned into bounded-size chunks. Each chunk is
// persisted as its own document and an index lists the chunks in
// reconstruction order. Manager abstracts where chunks and the index live;
// Writer (split) and Reader (combine) are the two directions of the
// transformation and depend only on Manager.
package chunk

import (
	"errors"
	"fmt"
	"strings"

	"mxguide/internal/record"
)

// DefaultMaxPerFile is the default maximum number of records in one chunk.
const DefaultMaxPerFile = 20

// IndexFileName is the name of the index inside a chunk directory.
const IndexFileName = "index.json"

var (
	ErrChunkDirNotFound = errors.New("chunk directory not found")
	ErrIndexNotFound    = errors.New("index not found")
	ErrChunkNotFound    = errors.New("chunk not found")
	ErrMalformed        = errors.New("invalid JSON")
)

// Chunk is one bounded-size slice of the record store.
type Chunk struct {
	Number int             `json:"chunk"`
	Count  int             `json:"count"`
	Errors []record.Record `json:"errors"`
}

// IndexEntry describes one chunk file in the index.
type IndexEntry struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Index is the manifest that reconstructs a record store from its chunks.
type Index struct {
	TotalChunks int          `json:"total_chunks"`
	TotalErrors int          `json:"total_errors"`
	MaxPerFile  int          `json:"max_per_file"`
	Chunks      []IndexEntry `json:"chunks"`
}

// NewIndex builds an index whose totals agree with entries.
func NewIndex(entries []IndexEntry, maxPerFile int) Index {
	if entries == nil {
		entries = []IndexEntry{}
	}
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	return Index{
		TotalChunks: len(entries),
		TotalErrors: total,
		MaxPerFile:  maxPerFile,
		Chunks:      entries,
	}
}

// Problems returns every way the index disagrees with itself.
func (idx Index) Problems() []string {
	var problems []string
	if idx.TotalChunks != len(idx.Chunks) {
		problems = append(problems, fmt.Sprintf("total_chunks is %d but %d chunks are listed", idx.TotalChunks, len(idx.Chunks)))
	}
	sum := 0
	for _, e := range idx.Chunks {
		sum += e.Count
	}
	if idx.TotalErrors != sum {
		problems = append(problems, fmt.Sprintf("total_errors is %d but listed chunks hold %d", idx.TotalErrors, sum))
	}
	return problems
}

// Files returns the chunk file names in reconstruction order.
func (idx Index) Files() []string {
	files := make([]string, len(idx.Chunks))
	for i, e := range idx.Chunks {
		files[i] = e.File
	}
	return files
}

// FileName returns the chunk file name for sequence number n: prefix_001.json.
func FileName(prefix string, n int) string {
	return fmt.Sprintf("%s_%03d.json", prefix, n)
}

// Pattern returns the glob that matches chunk files for prefix.
func Pattern(prefix string) string {
	return prefix + "_*.json"
}

// IsChunkFile reports whether name has the chunk file shape for prefix.
func IsChunkFile(prefix, name string) bool {
	return strings.HasPrefix(name, prefix+"_") && strings.HasSuffix(name, ".json") && len(name) > len(prefix)+len("_.json")
}

// Manager persists chunks and the index.
type Manager interface {
	// WriteChunk stores c, replacing any chunk with the same number.
	WriteChunk(c Chunk) (IndexEntry, error)

	// WriteIndex stores the index.
	WriteIndex(idx Index) error

	// ReadIndex loads the index. Returns ErrChunkDirNotFound or
	// ErrIndexNotFound when there is nothing to read.
	ReadIndex() (Index, error)

	// ReadChunk loads a chunk by file name. Returns ErrChunkNotFound when the
	// file is absent and ErrMalformed when it cannot be parsed.
	ReadChunk(file string) (Chunk, error)

	// List returns the names of stored chunk files in sorted order. Returns
	// ErrChunkDirNotFound when the chunk directory does not exist.
	List() ([]string, error)

	// Prune removes stored chunk files not named in keep and returns the
	// removed names.
	Prune(keep []string) ([]string, error)
}
