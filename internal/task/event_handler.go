package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vocab-api/internal/events"
)

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// BuildFunc turns an event into a task. Returning a nil task skips the event.
type BuildFunc func(ctx context.Context, event *events.Event) (Task, error)

// EventHandler submits a task for every event its BuildFunc accepts.
type EventHandler struct {
	build     BuildFunc
	submitter Submitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*EventHandler)(nil)

// NewEventHandler creates an EventHandler.
func NewEventHandler(build BuildFunc, submitter Submitter, log *slog.Logger) *EventHandler {
	if build == nil || submitter == nil {
		panic("task event handler requires a build function and a submitter")
	}
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{
		build:     build,
		submitter: submitter,
		logger:    log.With(slog.String("component", "task_event_handler")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *EventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	t, err := h.build(ctx, event)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", err)
	}
	if t == nil {
		log.Debug("event does not need a task")
		return nil
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		log.Error("failed to submit task",
			slog.String("task_id", t.ID().String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("task submitted for event", slog.String("task_id", t.ID().String()))
	return nil
}
