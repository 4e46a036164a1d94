package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	tasks []Task
	err   error
}

func (s *recordingSubmitter) Submit(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, t)
	return nil
}

func TestEventHandler(t *testing.T) {
	t.Parallel()

	event, err := events.NewEvent(events.TypeItemCreated, uuid.New(), map[string]bool{"needs_task": true})
	require.NoError(t, err)

	build := func(_ context.Context, e *events.Event) (Task, error) {
		var p map[string]bool
		if err := e.UnmarshalPayload(&p); err != nil {
			return nil, err
		}
		if !p["needs_task"] {
			return nil, nil
		}
		return newFuncTask(t, nil), nil
	}

	t.Run("submits built task", func(t *testing.T) {
		t.Parallel()
		sub := &recordingSubmitter{}
		h := NewEventHandler(build, sub, quietLogger())
		require.NoError(t, h.HandleEvent(context.Background(), event))
		assert.Len(t, sub.tasks, 1)
	})

	t.Run("skips when builder returns nil", func(t *testing.T) {
		t.Parallel()
		skip, err := events.NewEvent(events.TypeItemCreated, uuid.New(), map[string]bool{})
		require.NoError(t, err)
		sub := &recordingSubmitter{}
		h := NewEventHandler(build, sub, quietLogger())
		require.NoError(t, h.HandleEvent(context.Background(), skip))
		assert.Empty(t, sub.tasks)
	})

	t.Run("propagates submit failure", func(t *testing.T) {
		t.Parallel()
		sub := &recordingSubmitter{err: errors.New("full")}
		h := NewEventHandler(build, sub, quietLogger())
		err := h.HandleEvent(context.Background(), event)
		assert.ErrorContains(t, err, "failed to submit task")
	})

	t.Run("nil dependencies panic", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { NewEventHandler(nil, &recordingSubmitter{}, nil) })
	})
}
