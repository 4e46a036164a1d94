package task

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTaskType is returned when no factory is registered for a type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Factory rebuilds an executable task from its persisted record.
type Factory func(r Record) (Task, error)

// Registry maps task types to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register sets the factory for taskType, replacing any previous one.
func (r *Registry) Register(taskType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[taskType] = f
}

// Build rebuilds rec with its registered factory.
func (r *Registry) Build(rec Record) (Task, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}
	return f(rec)
}
