// Package testutil provides test support shared across packages.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// Record is one captured log line.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that keeps every record in memory so
// tests can assert on what the code under test logged. Attribute values
// keep their Go types, and attributes added with Logger.With survive into
// the captured records.
type CaptureHandler struct {
	state *captureState
	attrs []slog.Attr
}

type captureState struct {
	mu      sync.Mutex
	records []Record
	t       *testing.T
}

// NewCaptureLogger returns a logger whose output lands in the returned
// handler instead of a stream. Records are echoed through t.Logf so a
// failing test shows what was logged.
func NewCaptureLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{state: &captureState{t: t}}
	return slog.New(h), h
}

// Enabled reports true for every level; tests want to see debug output too.
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle appends the record, merging in attributes inherited from
// Logger.With chains.
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.records = append(h.state.records, Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	if h.state.t != nil {
		h.state.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs returns a handler that stamps attrs onto every later record.
// Derived handlers share one record buffer, so a test sees logs from the
// base logger and every Logger.With chain in one place.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CaptureHandler{state: h.state, attrs: merged}
}

// WithGroup flattens the group away; assertions key attributes by their
// bare name, which is how the cleaner logs them.
func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything captured so far.
func (h *CaptureHandler) Records() []Record {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	out := make([]Record, len(h.state.records))
	copy(out, h.state.records)
	return out
}

// RecordsAt returns the captured records at one level.
func (h *CaptureHandler) RecordsAt(level slog.Level) []Record {
	var out []Record
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any captured message contains substr.
func (h *CaptureHandler) ContainsMessage(substr string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// AttrValue returns the first value captured under key.
func (h *CaptureHandler) AttrValue(key string) (any, bool) {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok {
			return v, true
		}
	}
	return nil, false
}
