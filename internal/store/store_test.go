package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mxguide/internal/record"
)

func TestLoadNotExist(t *testing.T) {
	s := New(Config{Path: filepath.Join(t.TempDir(), "errors.json")})
	if s.Exists() {
		t.Fatal("store should not exist yet")
	}
	_, err := s.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.json")
	if err := os.WriteFile(path, []byte(`{"errors": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Config{Path: path}).Load()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "public", "data", "errors.json")
	s := New(Config{Path: path})

	a, _ := record.New(map[string]any{"code": "AC01", "category": "Account"})
	b, _ := record.New(map[string]any{"code": "AM04", "category": "Amount", "severity": "temporary"})
	if err := s.Save(&record.Document{Errors: []record.Record{a, b}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"errors\": [\n    {\n") {
		t.Errorf("unexpected layout:\n%s", data)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Errors) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded.Errors))
	}
	if !loaded.Errors[0].Equal(a) || !loaded.Errors[1].Equal(b) {
		t.Errorf("records changed across save/load")
	}
}

func TestSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.json")
	s := New(Config{Path: path})
	if err := s.Save(&record.Document{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "{\n  \"errors\": []\n}" {
		t.Errorf("got %q", data)
	}
}

func TestDecodeRejectsNonObjectRecord(t *testing.T) {
	_, err := Decode([]byte(`{"errors": ["AC01"]}`))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
