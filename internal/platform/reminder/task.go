package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/task"
)

// ErrInvalidPayload is returned when a reminder task payload cannot be used.
var ErrInvalidPayload = errors.New("invalid reminder payload")

// Payload is the persisted body of a reminder task.
type Payload struct {
	UserID   uuid.UUID `json:"user_id"`
	DueCount int       `json:"due_count"`
}

// Task notifies one user about their due items.
type Task struct {
	task.Base
	payload  Payload
	notifier Notifier
}

var _ task.Task = (*Task)(nil)

// NewTask creates a pending reminder task.
func NewTask(userID uuid.UUID, dueCount int, notifier Notifier) (*Task, error) {
	p := Payload{UserID: userID, DueCount: dueCount}
	if err := p.validate(); err != nil {
		return nil, err
	}
	base, err := task.NewBase(task.TaskTypeReminder, p)
	if err != nil {
		return nil, err
	}
	return &Task{Base: base, payload: p, notifier: notifier}, nil
}

func (p Payload) validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: empty user ID", ErrInvalidPayload)
	}
	if p.DueCount <= 0 {
		return fmt.Errorf("%w: due count must be positive", ErrInvalidPayload)
	}
	return nil
}

// Execute implements task.Task.
func (t *Task) Execute(ctx context.Context) error {
	return t.notifier.NotifyDue(ctx, t.payload.UserID, t.payload.DueCount)
}

// Factory rebuilds persisted reminder tasks.
func Factory(notifier Notifier) task.Factory {
	return func(r task.Record) (task.Task, error) {
		base := task.BaseFromRecord(r)
		var p Payload
		if err := base.DecodePayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return &Task{Base: base, payload: p, notifier: notifier}, nil
	}
}
