package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/vocab-api/internal/events"
)

// EventEmitter records emitted events. Err, when set, is returned from
// every EmitEvent call.
type EventEmitter struct {
	mu     sync.Mutex
	Events []*events.Event
	Err    error
}

var _ events.EventEmitter = (*EventEmitter)(nil)

func (m *EventEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

// Emitted returns a copy of the recorded events.
func (m *EventEmitter) Emitted() []*events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.Event(nil), m.Events...)
}
