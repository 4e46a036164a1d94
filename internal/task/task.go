package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	TaskTypeEnrichment = "item_enrichment"
	TaskTypeReminder   = "due_reminder"
)

// Task is a unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON the task is rebuilt from after a restart.
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// Record is the persisted form of a task.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore persists tasks and their status transitions.
type TaskStore interface {
	SaveTask(ctx context.Context, task Task) error

	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	GetPendingTasks(ctx context.Context) ([]Record, error)

	// GetProcessingTasks returns tasks in processing state. A non-zero
	// olderThan limits the result to tasks last updated before now-olderThan.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)

	WithTx(tx *sql.Tx) TaskStore
}

// Base implements the bookkeeping half of Task. Concrete tasks embed it and
// add Execute.
type Base struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   TaskStatus
}

// NewBase creates a pending task with a fresh ID and JSON payload.
func NewBase(taskType string, payload any) (Base, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Base{}, err
	}
	return Base{id: uuid.New(), taskType: taskType, payload: raw, status: TaskStatusPending}, nil
}

// BaseFromRecord restores the bookkeeping half of a persisted task.
func BaseFromRecord(r Record) Base {
	return Base{id: r.ID, taskType: r.Type, payload: r.Payload, status: r.Status}
}

func (b Base) ID() uuid.UUID      { return b.id }
func (b Base) Type() string       { return b.taskType }
func (b Base) Payload() []byte    { return b.payload }
func (b Base) Status() TaskStatus { return b.status }

// DecodePayload unmarshals the task payload into v.
func (b Base) DecodePayload(v any) error {
	return json.Unmarshal(b.payload, v)
}
