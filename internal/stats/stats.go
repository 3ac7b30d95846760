// Package stats computes aggregate counts over a record store.
package stats

import (
	"errors"
	"slices"

	"mxguide/internal/chunk"
	"mxguide/internal/record"
)

// Count is one bucket of a frequency breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ChunkInfo describes the chunk directory.
type ChunkInfo struct {
	Files      int `json:"files"`
	MaxPerFile int `json:"max_per_file"`
}

// Report is the statistics of one dataset.
type Report struct {
	Total      int        `json:"total"`
	Categories []Count    `json:"categories"`
	Severities []Count    `json:"severities"`
	Chunks     *ChunkInfo `json:"chunks,omitempty"`
}

// Compute tallies records by category and severity.
func Compute(records []record.Record) Report {
	return Report{
		Total:      len(records),
		Categories: Tally(records, record.Record.Category),
		Severities: Tally(records, record.Record.Severity),
	}
}

// WithChunks adds chunk directory information to r. A missing chunk
// directory leaves r unchanged.
func WithChunks(r Report, m chunk.Manager, maxPerFile int) (Report, error) {
	names, err := m.List()
	if err != nil {
		if errors.Is(err, chunk.ErrChunkDirNotFound) {
			return r, nil
		}
		return r, err
	}
	r.Chunks = &ChunkInfo{Files: len(names), MaxPerFile: maxPerFile}
	return r, nil
}

// Tally counts records by key, ordered by descending count. Ties keep the
// order in which the keys were first seen.
func Tally(records []record.Record, key func(record.Record) string) []Count {
	index := make(map[string]int)
	counts := []Count{}
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(counts)
			index[k] = i
			counts = append(counts, Count{Name: k})
		}
		counts[i].Count++
	}
	slices.SortStableFunc(counts, func(a, b Count) int {
		return b.Count - a.Count
	})
	return counts
}
