package memory

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mxguide/internal/chunk"
	"mxguide/internal/record"
)

func mustRecord(t *testing.T, code string) record.Record {
	t.Helper()
	r, err := record.New(map[string]any{"code": code})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return r
}

func TestEmptyManager(t *testing.T) {
	m := NewManager(Config{Prefix: "kb"})
	if _, err := m.ReadIndex(); !errors.Is(err, chunk.ErrChunkDirNotFound) {
		t.Fatalf("expected ErrChunkDirNotFound, got %v", err)
	}
	if _, err := m.List(); !errors.Is(err, chunk.ErrChunkDirNotFound) {
		t.Fatalf("expected ErrChunkDirNotFound, got %v", err)
	}
}

func TestWriteReadChunk(t *testing.T) {
	m := NewManager(Config{Prefix: "kb"})
	entry, err := m.WriteChunk(chunk.Chunk{Number: 2, Errors: []record.Record{mustRecord(t, "AC01")}})
	if err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	if diff := cmp.Diff(chunk.IndexEntry{File: "kb_002.json", Count: 1}, entry); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	if _, err := m.ReadIndex(); !errors.Is(err, chunk.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound before index write, got %v", err)
	}

	c, err := m.ReadChunk("kb_002.json")
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	if c.Number != 2 || c.Count != 1 || c.Errors[0].Code() != "AC01" {
		t.Errorf("unexpected chunk %+v", c)
	}

	if _, err := m.ReadChunk("kb_003.json"); !errors.Is(err, chunk.ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound, got %v", err)
	}
}

func TestWriteChunkRejectsZeroNumber(t *testing.T) {
	m := NewManager(Config{})
	if _, err := m.WriteChunk(chunk.Chunk{}); err == nil {
		t.Fatal("expected error for chunk number 0")
	}
}

func TestPrune(t *testing.T) {
	m := NewManager(Config{})
	for n := 1; n <= 3; n++ {
		if _, err := m.WriteChunk(chunk.Chunk{Number: n, Errors: []record.Record{mustRecord(t, "X")}}); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := m.Prune([]string{"chunk_001.json"})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if diff := cmp.Diff([]string{"chunk_002.json", "chunk_003.json"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	names, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"chunk_001.json"}, names); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexIsCopied(t *testing.T) {
	m := NewManager(Config{})
	entries := []chunk.IndexEntry{{File: "chunk_001.json", Count: 1}}
	if err := m.WriteIndex(chunk.NewIndex(entries, 20)); err != nil {
		t.Fatal(err)
	}
	entries[0].Count = 99

	idx, err := m.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if idx.Chunks[0].Count != 1 {
		t.Errorf("index aliased caller slice: count %d", idx.Chunks[0].Count)
	}
	if !m.HasIndex() {
		t.Error("HasIndex should be true")
	}
}
