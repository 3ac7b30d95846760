package file

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mxguide/internal/chunk"
	"mxguide/internal/record"
)

func newManager(t *testing.T, dir string, compress ...Encoding) *Manager {
	t.Helper()
	m, err := NewManager(Config{Dir: dir, Prefix: "errors", Compress: compress})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func records(t *testing.T, codes ...string) []record.Record {
	t.Helper()
	out := make([]record.Record, len(codes))
	for i, code := range codes {
		r, err := record.New(map[string]any{"code": code, "category": "Account", "description": "<b>&</b>"})
		if err != nil {
			t.Fatalf("new record: %v", err)
		}
		out[i] = r
	}
	return out
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Prefix: "errors"}); !errors.Is(err, ErrMissingDir) {
		t.Errorf("expected ErrMissingDir, got %v", err)
	}
	if _, err := NewManager(Config{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing prefix")
	}
}

func TestMissingDirectory(t *testing.T) {
	m := newManager(t, filepath.Join(t.TempDir(), "chunks"))
	if _, err := m.ReadIndex(); !errors.Is(err, chunk.ErrChunkDirNotFound) {
		t.Errorf("ReadIndex: expected ErrChunkDirNotFound, got %v", err)
	}
	if _, err := m.List(); !errors.Is(err, chunk.ErrChunkDirNotFound) {
		t.Errorf("List: expected ErrChunkDirNotFound, got %v", err)
	}
	if removed, err := m.Prune(nil); err != nil || len(removed) != 0 {
		t.Errorf("Prune on missing dir: removed=%v err=%v", removed, err)
	}
}

func TestWriteChunkLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chunks")
	m := newManager(t, dir)

	entry, err := m.WriteChunk(chunk.Chunk{Number: 1, Errors: records(t, "AC01", "AC04")})
	if err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	if diff := cmp.Diff(chunk.IndexEntry{File: "errors_001.json", Count: 2}, entry); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(dir, "errors_001.json"))
	if err != nil {
		t.Fatalf("read chunk file: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "{\n  \"chunk\": 1,\n  \"count\": 2,\n  \"errors\": [\n") {
		t.Errorf("unexpected layout:\n%s", text)
	}
	if !strings.Contains(text, "<b>&</b>") {
		t.Errorf("HTML characters were escaped:\n%s", text)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadChunk(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)
	want := records(t, "AC01", "AM04")
	if _, err := m.WriteChunk(chunk.Chunk{Number: 3, Errors: want}); err != nil {
		t.Fatal(err)
	}

	c, err := m.ReadChunk("errors_003.json")
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	if c.Number != 3 || c.Count != 2 {
		t.Errorf("unexpected header: number=%d count=%d", c.Number, c.Count)
	}
	for i := range want {
		if !c.Errors[i].Equal(want[i]) {
			t.Errorf("record %d changed: %s", i, c.Errors[i].Raw())
		}
	}

	if _, err := m.ReadChunk("errors_009.json"); !errors.Is(err, chunk.ErrChunkNotFound) {
		t.Errorf("expected ErrChunkNotFound, got %v", err)
	}
	if _, err := m.ReadChunk("../errors_003.json"); !errors.Is(err, chunk.ErrChunkNotFound) {
		t.Errorf("expected ErrChunkNotFound for path escape, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "errors_004.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadChunk("errors_004.json"); !errors.Is(err, chunk.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir)

	if _, err := m.ReadIndex(); !errors.Is(err, chunk.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}

	want := chunk.NewIndex([]chunk.IndexEntry{{File: "errors_001.json", Count: 20}, {File: "errors_002.json", Count: 5}}, 20)
	if err := m.WriteIndex(want); err != nil {
		t.Fatalf("write index: %v", err)
	}
	got, err := m.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(m.IndexPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"total_chunks\": 2,\n  \"total_errors\": 25,\n  \"max_per_file\": 20,\n") {
		t.Errorf("unexpected index layout:\n%s", data)
	}

	if err := os.WriteFile(m.IndexPath(), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadIndex(); !errors.Is(err, chunk.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestListIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, Brotli)
	for n := 1; n <= 2; n++ {
		if _, err := m.WriteChunk(chunk.Chunk{Number: n, Errors: records(t, "X")}); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.WriteIndex(chunk.NewIndex(nil, 20)); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"kb_001.json", "errors_notes.txt", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "errors_dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"errors_001.json", "errors_002.json"}, names); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestSidecars(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, Brotli, Gzip, Zstd)
	if _, err := m.WriteChunk(chunk.Chunk{Number: 1, Errors: records(t, "AC01")}); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteIndex(chunk.NewIndex([]chunk.IndexEntry{{File: "errors_001.json", Count: 1}}, 20)); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"errors_001.json", chunk.IndexFileName} {
		plain, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		for _, enc := range Encodings {
			compressed, err := os.ReadFile(filepath.Join(dir, name+enc.Ext()))
			if err != nil {
				t.Fatalf("%s%s: %v", name, enc.Ext(), err)
			}
			got, err := Decompress(enc, compressed)
			if err != nil {
				t.Fatalf("decompress %s%s: %v", name, enc.Ext(), err)
			}
			if string(got) != string(plain) {
				t.Errorf("%s%s does not match %s", name, enc.Ext(), name)
			}
		}
	}

	// Rewriting without compression removes the sidecars.
	m = newManager(t, dir)
	if _, err := m.WriteChunk(chunk.Chunk{Number: 1, Errors: records(t, "AC02")}); err != nil {
		t.Fatal(err)
	}
	for _, enc := range Encodings {
		if _, err := os.Stat(filepath.Join(dir, "errors_001.json"+enc.Ext())); !os.IsNotExist(err) {
			t.Errorf("stale sidecar %s survived: %v", enc.Ext(), err)
		}
	}
}

func TestPruneRemovesSidecars(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, Gzip)
	for n := 1; n <= 3; n++ {
		if _, err := m.WriteChunk(chunk.Chunk{Number: n, Errors: records(t, "X")}); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := m.Prune([]string{"errors_001.json"})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if diff := cmp.Diff([]string{"errors_002.json", "errors_003.json"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	if diff := cmp.Diff([]string{"errors_001.json", "errors_001.json.gz"}, left); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitCombineOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chunks")
	m := newManager(t, dir)

	var store []record.Record
	for _, code := range []string{"AC01", "AC02", "AC03", "AC04", "AC05"} {
		store = append(store, records(t, code)...)
	}
	w, err := chunk.NewWriter(chunk.WriterConfig{Manager: m, MaxPerFile: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Split(store); err != nil {
		t.Fatalf("split: %v", err)
	}

	r, err := chunk.NewReader(chunk.ReaderConfig{Manager: m})
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Combine()
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if res.Chunks != 3 || len(res.Records) != 5 {
		t.Fatalf("combine read %d chunks / %d records, want 3 / 5", res.Chunks, len(res.Records))
	}
	for i := range store {
		if !res.Records[i].Equal(store[i]) {
			t.Errorf("record %d changed", i)
		}
	}
}

func TestSplitEmptyCreatesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chunks")
	m := newManager(t, dir)
	w, err := chunk.NewWriter(chunk.WriterConfig{Manager: m})
	if err != nil {
		t.Fatal(err)
	}
	res, err := w.Split(nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if res.Index.TotalChunks != 0 {
		t.Errorf("expected zero chunks, got %d", res.Index.TotalChunks)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("empty split created the chunk directory: %v", err)
	}
}
