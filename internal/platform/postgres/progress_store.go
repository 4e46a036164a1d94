package postgres

import (
	"context"
	"database/sql"
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

var progressColumns = []string{
	"user_id", "current_streak", "longest_streak", "last_study_day",
	"total_sessions", "total_reviews", "total_correct", "updated_at",
}

// PostgresProgressStore implements store.ProgressStore on the user_progress
// and user_achievements tables.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// NewPostgresProgressStore creates a progress store on db.
func NewPostgresProgressStore(db store.DBTX, log *slog.Logger) *PostgresProgressStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresProgressStore{db: db, logger: log.With(slog.String("component", "progress_store"))}
}

// WithTx implements store.ProgressStore.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{db: tx, logger: s.logger}
}

// Get implements store.ProgressStore.
func (s *PostgresProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	return s.load(ctx, psql.Select(progressColumns...).From("user_progress").Where(sq.Eq{"user_id": userID}))
}

// GetForUpdate implements store.ProgressStore.
func (s *PostgresProgressStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	return s.load(ctx, psql.Select(progressColumns...).From("user_progress").
		Where(sq.Eq{"user_id": userID}).Suffix("FOR UPDATE"))
}

func (s *PostgresProgressStore) load(ctx context.Context, b sq.SelectBuilder) (*domain.ProgressSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		p       domain.ProgressSummary
		lastDay sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&p.UserID, &p.CurrentStreak, &p.LongestStreak,
		&lastDay, &p.TotalSessions, &p.TotalReviews, &p.TotalCorrect, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to load progress", redact.Attr(err))
		return nil, MapError(err)
	}
	p.LastStudyDay = nullTimePtr(lastDay)

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, unlocked_at FROM user_achievements WHERE user_id = $1 ORDER BY unlocked_at, code`, p.UserID)
	if err != nil {
		log.Error("failed to load achievements", redact.Attr(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	p.Achievements = []domain.Achievement{}
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.Code, &a.UnlockedAt); err != nil {
			return nil, MapError(err)
		}
		p.Achievements = append(p.Achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return &p, nil
}

// Save implements store.ProgressStore.
func (s *PostgresProgressStore) Save(ctx context.Context, p *domain.ProgressSummary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := psql.Insert("user_progress").Columns(progressColumns...).Values(
		p.UserID, p.CurrentStreak, p.LongestStreak, p.LastStudyDay,
		p.TotalSessions, p.TotalReviews, p.TotalCorrect, p.UpdatedAt,
	).Suffix(`ON CONFLICT (user_id) DO UPDATE SET
		current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_study_day = EXCLUDED.last_study_day,
		total_sessions = EXCLUDED.total_sessions,
		total_reviews = EXCLUDED.total_reviews,
		total_correct = EXCLUDED.total_correct,
		updated_at = EXCLUDED.updated_at`).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save progress", redact.Attr(err))
		return MapError(err)
	}

	if len(p.Achievements) == 0 {
		return nil
	}

	ins := psql.Insert("user_achievements").Columns("user_id", "code", "unlocked_at")
	for _, a := range p.Achievements {
		ins = ins.Values(p.UserID, string(a.Code), a.UnlockedAt)
	}
	query, args, err = ins.Suffix("ON CONFLICT (user_id, code) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build achievements insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save achievements", redact.Attr(err))
		return MapError(err)
	}
	return nil
}
