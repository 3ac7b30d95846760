// Package datadir resolves the on-disk layout of a dataset profile.
//
// Layout (guide profile defaults shown):
//
//	<root>/                            public/data
//	  errors.json                      (record store)
//	  real_world_examples.json         (curated examples, guide only)
//	  complex_examples.json            (examples awaiting merge)
//	  chunks/
//	    index.json
//	    errors_001.json ...
package datadir

import (
	"fmt"
	"os"
	"path/filepath"

	"mxguide/internal/chunk"
	"mxguide/internal/config"
	"mxguide/internal/fsutil"
)

// Dir represents a dataset directory.
type Dir struct {
	root    string
	profile config.Profile
}

// New creates a Dir rooted at profile.DataDir.
func New(profile config.Profile) Dir {
	return Dir{root: profile.DataDir, profile: profile}
}

// Root returns the dataset directory path.
func (d Dir) Root() string {
	return d.root
}

// Profile returns the profile the layout was derived from.
func (d Dir) Profile() config.Profile {
	return d.profile
}

// MainPath returns the path to the record store.
func (d Dir) MainPath() string {
	return filepath.Join(d.root, d.profile.MainFile)
}

// ChunksDir returns the directory holding chunk files and the index.
func (d Dir) ChunksDir() string {
	if d.profile.ChunksDir == "" {
		return d.root
	}
	return filepath.Join(d.root, d.profile.ChunksDir)
}

// ChunkPrefix returns the chunk file name prefix.
func (d Dir) ChunkPrefix() string {
	return d.profile.ChunkPrefix
}

// IndexPath returns the path to the chunk index.
func (d Dir) IndexPath() string {
	return filepath.Join(d.ChunksDir(), chunk.IndexFileName)
}

// ExamplesPath returns the path to the curated examples file, or "" when the
// profile has none.
func (d Dir) ExamplesPath() string {
	if d.profile.ExamplesFile == "" {
		return ""
	}
	return filepath.Join(d.root, d.profile.ExamplesFile)
}

// ComplexExamplesPath returns the path to the examples awaiting merge, or ""
// when the profile has none.
func (d Dir) ComplexExamplesPath() string {
	if d.profile.ComplexExamplesFile == "" {
		return ""
	}
	return filepath.Join(d.root, d.profile.ComplexExamplesFile)
}

// HasChunks reports whether the chunk directory exists.
func (d Dir) HasChunks() bool {
	return fsutil.IsDir(d.ChunksDir())
}

// EnsureExists creates the dataset directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, fsutil.DefaultDirMode); err != nil {
		return fmt.Errorf("create data directory %s: %w", d.root, err)
	}
	return nil
}
