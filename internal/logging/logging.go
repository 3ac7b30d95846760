// Package logging provides utilities for structured logging across mxguide.
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component owns its own scoped logger
//   - Logger scoping happens once at construction time
//   - slog.With() is used to attach default attributes
//   - If no logger is provided, a discard logger is used
//
// Global configuration (output format, level, destination) belongs only in the
// command layer. Components must never call slog.SetDefault.
//
// Logging is intentionally sparse: one line per lifecycle boundary (file
// written, command finished), never one per record.
package logging

import (
	"context"
	"log/slog"
	"sync"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
// Use this as a default when no logger is provided.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise returns a discard logger.
// This is the standard pattern for optional logger parameters:
//
//	func NewComponent(cfg Config) *Component {
//	    logger := logging.Default(cfg.Logger)
//	    return &Component{logger: logger.With("component", "name")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentKey is the attribute key used to scope loggers to a component.
const ComponentKey = "component"

// levelTable is shared by a ComponentFilterHandler and all handlers derived
// from it through WithAttrs/WithGroup.
type levelTable struct {
	mu       sync.RWMutex
	def      slog.Level
	override map[string]slog.Level
}

func (t *levelTable) level(component string) slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if lvl, ok := t.override[component]; ok {
		return lvl
	}
	return t.def
}

// min returns the lowest level any component is currently allowed to log at.
func (t *levelTable) min() slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	lowest := t.def
	for _, lvl := range t.override {
		if lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}

// ComponentFilterHandler filters records by a per-component minimum level.
// The component is taken from a "component" attribute, either attached with
// Logger.With or passed on the record itself. Records without a component use
// the default level.
type ComponentFilterHandler struct {
	next      slog.Handler
	levels    *levelTable
	component string
}

// NewComponentFilterHandler wraps next. Records below defaultLevel are dropped
// unless their component has been given a lower level with SetLevel.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next: next,
		levels: &levelTable{
			def:      defaultLevel,
			override: make(map[string]slog.Level),
		},
	}
}

// SetLevel sets the minimum level for one component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.levels.mu.Lock()
	defer h.levels.mu.Unlock()
	h.levels.override[component] = level
}

// ClearLevel removes a component override, reverting it to the default level.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.levels.mu.Lock()
	defer h.levels.mu.Unlock()
	delete(h.levels.override, component)
}

// Level returns the effective minimum level for component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	return h.levels.level(component)
}

// DefaultLevel returns the level used for components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	h.levels.mu.RLock()
	defer h.levels.mu.RUnlock()
	return h.levels.def
}

func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.component != "" {
		if level < h.levels.level(h.component) {
			return false
		}
	} else if level < h.levels.min() {
		return false
	}
	return h.next == nil || h.next.Enabled(ctx, level)
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == ComponentKey {
				component = a.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < h.levels.level(component) {
		return nil
	}
	if h.next == nil {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		if a.Key == ComponentKey {
			clone.component = a.Value.String()
		}
	}
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}
