package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Events emitted by CatalogService.
const (
	EventCatalogSwapped = "catalog:swapped"
	EventTableSynced    = "table:synced"
)

// EventEmitter receives notifications about catalog changes.
// Services receive this interface so they can be tested with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a logger at info level.
type LogEmitter struct {
	Log *logrus.Entry
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	if e.Log == nil {
		return
	}
	e.Log.WithField("event", event).WithField("data", data).Info("event")
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
