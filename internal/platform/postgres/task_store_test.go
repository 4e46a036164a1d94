package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/phrazzld/vocab-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopTask struct {
	task.Base
}

func (noopTask) Execute(context.Context) error { return nil }

func newTaskStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, quietLogger())
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestPostgresTaskStore_SaveTask(t *testing.T) {
	t.Parallel()

	s, mock := newTaskStore(t)
	base, err := task.NewBase(task.TaskTypeReminder, map[string]int{"due": 3})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks (id, type, payload, status")).
		WithArgs(base.ID(), task.TaskTypeReminder, `{"due":3}`, "pending", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveTask(context.Background(), noopTask{Base: base}))
}

func TestPostgresTaskStore_UpdateTaskStatus(t *testing.T) {
	t.Parallel()

	s, mock := newTaskStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = $1")).
		WithArgs("failed", "boom", fixedNow, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusFailed, "boom"))

	mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusCompleted, ""), store.ErrTaskNotFound)
}

func TestPostgresTaskStore_GetProcessingTasks(t *testing.T) {
	t.Parallel()

	s, mock := newTaskStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE status = $1 AND updated_at < $2 ORDER BY created_at ASC")).
		WithArgs("processing", fixedNow.Add(-30*time.Minute)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "payload", "status", "error_message", "created_at", "updated_at"}).
			AddRow(id.String(), task.TaskTypeEnrichment, []byte(`{}`), "processing", nil, fixedNow, fixedNow))

	records, err := s.GetProcessingTasks(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, task.TaskStatusProcessing, records[0].Status)
	assert.Empty(t, records[0].ErrorMessage)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE status = $1 ORDER BY")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	pending, err := s.GetPendingTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
