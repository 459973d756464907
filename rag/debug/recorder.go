// Package debug carries stage-level pipeline events to an observability
// sink. Recording is strictly best-effort: no sink may fail a request.
package debug

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event is one append-only record of a pipeline stage outcome.
type Event struct {
	Stage     string        `json:"stage"`
	Component string        `json:"component"`
	Duration  time.Duration `json:"duration"`
	Outcome   string        `json:"outcome"`
	At        time.Time     `json:"at"`
}

// Stage outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Recorder is the sink both pipelines report to.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

// LogRecorder writes events to the zerolog logger.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, ev Event) {
	level := zerolog.DebugLevel
	if ev.Outcome != OutcomeOK {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Str("stage", ev.Stage).
		Str("component", ev.Component).
		Str("outcome", ev.Outcome).
		Int64("duration_ms", ev.Duration.Milliseconds()).
		Msg("pipeline stage")
}

// MemoryRecorder keeps events in memory. Safe for concurrent use.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(_ context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a snapshot of everything recorded so far.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// MultiRecorder fans one event out to several sinks.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, ev)
		}
	}
}
