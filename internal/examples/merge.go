// Package examples merges newly authored real-world examples into the
// curated examples file served next to the record store.
//
// The curated file has the shape
//
//	{"metadata": {"example_count": N, "categories": [...], ...}, "examples": [...]}
//
// and the file awaiting merge is a bare array of examples. Examples are
// opaque apart from their "id" and "category" fields and are carried over
// byte-for-byte.
package examples

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"mxguide/internal/fsutil"
	"mxguide/internal/logging"
)

var (
	ErrMainFileNotFound = errors.New("examples file not found")
	ErrNewFileNotFound  = errors.New("new examples file not found")
	ErrMalformed        = errors.New("examples file is not valid")
)

// Example is one example entry.
type Example struct {
	raw      json.RawMessage
	id       string
	category string
}

// ID returns the compact JSON of the example's id, so 7 and "7" stay distinct.
func (e Example) ID() string {
	return e.id
}

// Category returns the example's category.
func (e Example) Category() string {
	return e.category
}

func (e Example) MarshalJSON() ([]byte, error) {
	return e.raw, nil
}

func (e *Example) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("example is not a JSON object")
	}
	id, ok := fields["id"]
	if !ok {
		return errors.New("example has no id")
	}
	var compactID bytes.Buffer
	if err := json.Compact(&compactID, id); err != nil {
		return err
	}
	rawCategory, ok := fields["category"]
	if !ok {
		return fmt.Errorf("example %s has no category", compactID.String())
	}
	var category string
	if err := json.Unmarshal(rawCategory, &category); err != nil {
		return fmt.Errorf("example %s: category is not a string", compactID.String())
	}
	var raw bytes.Buffer
	if err := json.Compact(&raw, data); err != nil {
		return err
	}
	e.raw = raw.Bytes()
	e.id = compactID.String()
	e.category = category
	return nil
}

// File is the curated examples file. Metadata keys other than example_count
// and categories are preserved.
type File struct {
	Metadata map[string]json.RawMessage `json:"metadata"`
	Examples []Example                  `json:"examples"`
}

// Categories returns metadata.categories.
func (f *File) Categories() ([]string, error) {
	raw, ok := f.Metadata["categories"]
	if !ok {
		return nil, nil
	}
	var cats []string
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("metadata.categories: %w", err)
	}
	return cats, nil
}

// Config configures a merge.
type Config struct {
	// MainPath is the curated examples file.
	MainPath string

	// NewPath is the file of examples awaiting merge.
	NewPath string

	// Keep retains NewPath after a successful merge.
	Keep bool

	FileMode os.FileMode
	Logger   *slog.Logger
}

// Result reports what a merge did.
type Result struct {
	Added      int
	Skipped    int
	Total      int
	Categories []string
	Removed    bool
}

// Merge appends every example of NewPath whose id is not yet present in
// MainPath, refreshes the metadata, rewrites MainPath atomically, and then
// removes NewPath unless Keep is set.
//
// metadata.categories becomes the sorted union of the existing categories
// and the categories of every example in NewPath, including ones skipped as
// duplicates.
func Merge(cfg Config) (Result, error) {
	logger := logging.Default(cfg.Logger).With("component", "examples")

	newData, err := os.ReadFile(cfg.NewPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrNewFileNotFound, cfg.NewPath)
		}
		return Result{}, err
	}
	var incoming []Example
	if err := json.Unmarshal(newData, &incoming); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrMalformed, cfg.NewPath, err)
	}

	curated, err := Load(cfg.MainPath)
	if err != nil {
		return Result{}, err
	}

	seen := make(map[string]bool, len(curated.Examples))
	for _, ex := range curated.Examples {
		seen[ex.ID()] = true
	}

	var res Result
	for _, ex := range incoming {
		if seen[ex.ID()] {
			res.Skipped++
			continue
		}
		curated.Examples = append(curated.Examples, ex)
		seen[ex.ID()] = true
		res.Added++
	}

	cats, err := curated.Categories()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrMalformed, cfg.MainPath, err)
	}
	for _, ex := range incoming {
		if !slices.Contains(cats, ex.Category()) {
			cats = append(cats, ex.Category())
		}
	}
	slices.Sort(cats)
	cats = slices.Compact(cats)
	if cats == nil {
		cats = []string{}
	}

	if curated.Metadata == nil {
		curated.Metadata = make(map[string]json.RawMessage)
	}
	res.Total = len(curated.Examples)
	res.Categories = cats
	if curated.Metadata["example_count"], err = json.Marshal(res.Total); err != nil {
		return Result{}, err
	}
	if curated.Metadata["categories"], err = json.Marshal(cats); err != nil {
		return Result{}, err
	}

	if _, err := fsutil.WriteJSON(cfg.MainPath, curated, cfg.FileMode); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", cfg.MainPath, err)
	}

	if !cfg.Keep {
		if err := os.Remove(cfg.NewPath); err != nil {
			return res, fmt.Errorf("remove %s: %w", cfg.NewPath, err)
		}
		res.Removed = true
	}

	logger.Info("examples merged", "added", res.Added, "skipped", res.Skipped, "total", res.Total)
	return res, nil
}

// Load reads the curated examples file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMainFileNotFound, path)
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if f.Examples == nil {
		f.Examples = []Example{}
	}
	return &f, nil
}
