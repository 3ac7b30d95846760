package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"mxguide/internal/config"
)

func guide(t *testing.T) config.Profile {
	t.Helper()
	p, err := config.Default().Profile(config.ProfileGuide)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGuideLayout(t *testing.T) {
	d := New(guide(t))
	if d.Root() != "public/data" {
		t.Errorf("root = %s", d.Root())
	}
	if got := d.MainPath(); got != filepath.Join("public", "data", "errors.json") {
		t.Errorf("main path = %s", got)
	}
	if got := d.ChunksDir(); got != filepath.Join("public", "data", "chunks") {
		t.Errorf("chunks dir = %s", got)
	}
	if got := d.IndexPath(); got != filepath.Join("public", "data", "chunks", "index.json") {
		t.Errorf("index path = %s", got)
	}
	if got := d.ExamplesPath(); got != filepath.Join("public", "data", "real_world_examples.json") {
		t.Errorf("examples path = %s", got)
	}
	if got := d.ComplexExamplesPath(); got != filepath.Join("public", "data", "complex_examples.json") {
		t.Errorf("complex examples path = %s", got)
	}
	if d.ChunkPrefix() != "errors" {
		t.Errorf("prefix = %s", d.ChunkPrefix())
	}
}

func TestKBLayout(t *testing.T) {
	p, err := config.Default().Profile(config.ProfileKB)
	if err != nil {
		t.Fatal(err)
	}
	d := New(p)
	if got := d.MainPath(); got != filepath.Join("scraper", "data", "error_knowledge_base.json") {
		t.Errorf("main path = %s", got)
	}
	if d.ChunkPrefix() != "kb" {
		t.Errorf("prefix = %s", d.ChunkPrefix())
	}
	if d.ExamplesPath() != "" || d.ComplexExamplesPath() != "" {
		t.Error("kb profile should have no example files")
	}
}

func TestEmptyChunksDirUsesRoot(t *testing.T) {
	p := guide(t)
	p.ChunksDir = ""
	d := New(p)
	if d.ChunksDir() != d.Root() {
		t.Errorf("chunks dir = %s, want root %s", d.ChunksDir(), d.Root())
	}
}

func TestEnsureExistsAndHasChunks(t *testing.T) {
	p := guide(t)
	p.DataDir = filepath.Join(t.TempDir(), "a", "b")
	d := New(p)

	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	info, err := os.Stat(d.Root())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}

	if d.HasChunks() {
		t.Error("HasChunks before chunk dir exists")
	}
	if err := os.Mkdir(d.ChunksDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if !d.HasChunks() {
		t.Error("HasChunks after chunk dir created")
	}
}
