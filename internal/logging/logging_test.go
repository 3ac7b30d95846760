package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard() returned nil")
	}
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled at any level")
	}
	logger.Info("dropped")
}

func TestDefault(t *testing.T) {
	t.Run("nil returns discard", func(t *testing.T) {
		logger := Default(nil)
		if logger.Enabled(context.Background(), slog.LevelInfo) {
			t.Error("Default(nil) should return a discard logger")
		}
	})

	t.Run("non-nil returns same logger", func(t *testing.T) {
		var buf bytes.Buffer
		original := slog.New(slog.NewTextHandler(&buf, nil))
		if Default(original) != original {
			t.Error("Default should return the same logger when non-nil")
		}
	})
}

// recorder captures log records. Clones made by WithAttrs share storage.
type recorder struct {
	mu      *sync.Mutex
	records *[]slog.Record
}

func newRecorder() *recorder {
	var records []slog.Record
	return &recorder{mu: &sync.Mutex{}, records: &records}
}

func (h *recorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *recorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *recorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recorder) WithGroup(string) slog.Handler      { return h }

func (h *recorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(*h.records)
}

func TestComponentFilterHandlerLevels(t *testing.T) {
	rec := newRecorder()
	filter := NewComponentFilterHandler(rec, slog.LevelInfo)
	logger := slog.New(filter)

	steps := []struct {
		name      string
		log       func()
		wantTotal int
	}{
		{"info passes", func() { logger.Info("m", "component", "split") }, 1},
		{"debug dropped", func() { logger.Debug("m", "component", "split") }, 1},
		{"warn passes", func() { logger.Warn("m", "component", "combine") }, 2},
		{"debug enabled for split", func() {
			filter.SetLevel("split", slog.LevelDebug)
			logger.Debug("m", "component", "split")
		}, 3},
		{"debug still dropped for validate", func() { logger.Debug("m", "component", "validate") }, 3},
		{"debug dropped without component", func() { logger.Debug("m") }, 3},
		{"cleared override drops debug", func() {
			filter.ClearLevel("split")
			logger.Debug("m", "component", "split")
		}, 3},
	}
	for _, s := range steps {
		s.log()
		if got := rec.count(); got != s.wantTotal {
			t.Fatalf("%s: expected %d records, got %d", s.name, s.wantTotal, got)
		}
	}
}

func TestComponentFilterHandlerLevelLookup(t *testing.T) {
	filter := NewComponentFilterHandler(nil, slog.LevelWarn)

	if lvl := filter.Level("stats"); lvl != slog.LevelWarn {
		t.Errorf("expected WARN for unknown component, got %v", lvl)
	}
	filter.SetLevel("stats", slog.LevelDebug)
	if lvl := filter.Level("stats"); lvl != slog.LevelDebug {
		t.Errorf("expected DEBUG after SetLevel, got %v", lvl)
	}
	if lvl := filter.DefaultLevel(); lvl != slog.LevelWarn {
		t.Errorf("expected default WARN, got %v", lvl)
	}
	filter.ClearLevel("never-set")
	if lvl := filter.Level("never-set"); lvl != slog.LevelWarn {
		t.Errorf("expected WARN after clearing unknown component, got %v", lvl)
	}
}

func TestComponentFilterHandlerScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewComponentFilterHandler(base, slog.LevelInfo)
	root := slog.New(filter)

	splitLog := root.With("component", "split")
	publishLog := root.With("component", "publish")

	splitLog.Debug("split debug 1")
	publishLog.Debug("publish debug 1")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %s", buf.String())
	}

	filter.SetLevel("split", slog.LevelDebug)
	splitLog.Debug("split debug 2")
	publishLog.Debug("publish debug 2")

	out := buf.String()
	if !strings.Contains(out, "split debug 2") {
		t.Errorf("expected split debug line, got: %s", out)
	}
	if strings.Contains(out, "publish debug") {
		t.Errorf("did not expect publish debug line, got: %s", out)
	}
}

func TestComponentFilterHandlerWithGroup(t *testing.T) {
	rec := newRecorder()
	filter := NewComponentFilterHandler(rec, slog.LevelInfo)
	logger := slog.New(filter.WithGroup("run"))

	logger.Info("kept", "component", "export")
	logger.Debug("dropped", "component", "export")
	if got := rec.count(); got != 1 {
		t.Errorf("expected 1 record, got %d", got)
	}
}

func TestComponentFilterHandlerConcurrent(t *testing.T) {
	rec := newRecorder()
	filter := NewComponentFilterHandler(rec, slog.LevelInfo)
	logger := slog.New(filter)

	const goroutines = 8
	const iterations = 50

	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range iterations {
				logger.Info("message", "component", "query")
			}
		})
		wg.Go(func() {
			for range iterations {
				filter.SetLevel("query", slog.LevelDebug)
				filter.ClearLevel("query")
			}
		})
	}
	wg.Wait()

	if got := rec.count(); got != goroutines*iterations {
		t.Errorf("expected %d records, got %d", goroutines*iterations, got)
	}
}
