package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/store"
)

var sessionColumns = []string{
	"id", "user_id", "mode", "item_ids", "position", "reviewed", "correct", "promoted",
	"started_at", "finished_at", "updated_at",
}

// PostgresSessionStore implements store.SessionStore. Item IDs are kept as
// an ordered JSONB array.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore creates a session store on db.
func NewPostgresSessionStore(db store.DBTX, log *slog.Logger) *PostgresSessionStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresSessionStore{db: db, logger: log.With(slog.String("component", "session_store"))}
}

// WithTx implements store.SessionStore.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

func scanSession(row rowScanner) (*domain.StudySession, error) {
	var (
		sess     domain.StudySession
		rawIDs   []byte
		finished sql.NullTime
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Mode, &rawIDs, &sess.Position,
		&sess.Reviewed, &sess.Correct, &sess.Promoted, &sess.StartedAt, &finished, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawIDs, &sess.ItemIDs); err != nil {
		return nil, fmt.Errorf("decode session item ids: %w", err)
	}
	sess.FinishedAt = nullTimePtr(finished)
	return &sess, nil
}

// Create implements store.SessionStore.
func (s *PostgresSessionStore) Create(ctx context.Context, sess *domain.StudySession) error {
	ids, err := json.Marshal(sess.ItemIDs)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query, args, err := psql.Insert("study_sessions").Columns(sessionColumns...).Values(
		sess.ID, sess.UserID, string(sess.Mode), sq.Expr("?::jsonb", string(ids)), sess.Position,
		sess.Reviewed, sess.Correct, sess.Promoted, sess.StartedAt, sess.FinishedAt, sess.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert study session",
			redact.Attr(err))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.SessionStore.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	return s.getOne(ctx, psql.Select(sessionColumns...).From("study_sessions").Where(sq.Eq{"id": id}))
}

// GetForUpdate implements store.SessionStore.
func (s *PostgresSessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	return s.getOne(ctx, psql.Select(sessionColumns...).From("study_sessions").
		Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (s *PostgresSessionStore) getOne(ctx context.Context, b sq.SelectBuilder) (*domain.StudySession, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load study session",
			redact.Attr(err))
		return nil, MapError(err)
	}
	return sess, nil
}

// Update implements store.SessionStore.
func (s *PostgresSessionStore) Update(ctx context.Context, sess *domain.StudySession) error {
	query, args, err := psql.Update("study_sessions").
		Set("position", sess.Position).
		Set("reviewed", sess.Reviewed).
		Set("correct", sess.Correct).
		Set("promoted", sess.Promoted).
		Set("finished_at", sess.FinishedAt).
		Set("updated_at", sess.UpdatedAt).
		Where(sq.Eq{"id": sess.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update study session",
			redact.Attr(err))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSessionNotFound)
}
