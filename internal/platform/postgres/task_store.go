package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/phrazzld/vocab-api/internal/task"
)

// PostgresTaskStore implements task.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store on db.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithTx implements task.TaskStore.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger, now: s.now}
}

// SaveTask implements task.TaskStore.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6)`,
		t.ID(), t.Type(), string(t.Payload()), string(t.Status()), now, now)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			redact.Attr(err))
		return MapError(err)
	}
	return nil
}

// UpdateTaskStatus implements task.TaskStore.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(status), errorMsg, s.now(), taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			redact.Attr(err))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// GetPendingTasks implements task.TaskStore.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Record, error) {
	return s.byStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks implements task.TaskStore.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.byStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresTaskStore) byStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Record, error) {
	b := psql.Select("id", "type", "payload", "status", "error_message", "created_at", "updated_at").
		From("tasks").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at ASC")
	if olderThan > 0 {
		b = b.Where(sq.Lt{"updated_at": s.now().Add(-olderThan)})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks by status",
			slog.String("status", string(status)),
			redact.Attr(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []task.Record
	for rows.Next() {
		var (
			r      task.Record
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Type, &r.Payload, &r.Status, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		r.ErrorMessage = errMsg.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}
