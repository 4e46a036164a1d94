package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/service/vocab"
	"github.com/phrazzld/vocab-api/internal/task"
)

// ErrInvalidPayload is returned when an enrichment task payload cannot be used.
var ErrInvalidPayload = errors.New("invalid enrichment payload")

// Payload is the persisted body of an enrichment task.
type Payload struct {
	ItemID uuid.UUID `json:"item_id"`
}

// Task enriches one item.
type Task struct {
	task.Base
	itemID   uuid.UUID
	enricher *Enricher
}

var _ task.Task = (*Task)(nil)

// NewTask creates a pending enrichment task.
func NewTask(itemID uuid.UUID, enricher *Enricher) (*Task, error) {
	if itemID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty item ID", ErrInvalidPayload)
	}
	base, err := task.NewBase(task.TaskTypeEnrichment, Payload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return &Task{Base: base, itemID: itemID, enricher: enricher}, nil
}

// Execute implements task.Task.
func (t *Task) Execute(ctx context.Context) error {
	return t.enricher.Enrich(ctx, t.itemID)
}

// Factory rebuilds persisted enrichment tasks.
func Factory(enricher *Enricher) task.Factory {
	return func(r task.Record) (task.Task, error) {
		base := task.BaseFromRecord(r)
		var p Payload
		if err := base.DecodePayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.ItemID == uuid.Nil {
			return nil, fmt.Errorf("%w: empty item ID", ErrInvalidPayload)
		}
		return &Task{Base: base, itemID: p.ItemID, enricher: enricher}, nil
	}
}

// BuildFunc turns item.created events for items without an example into
// enrichment tasks.
func BuildFunc(enricher *Enricher) task.BuildFunc {
	return func(_ context.Context, event *events.Event) (task.Task, error) {
		if event.Type != events.TypeItemCreated {
			return nil, nil
		}
		var p vocab.ItemCreatedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.HasExample {
			return nil, nil
		}
		return NewTask(p.ItemID, enricher)
	}
}
