package progress

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
)

const serviceName = "progress"

// Service records finished sessions and reports progress.
type Service interface {
	events.EventHandler

	// RecordSession folds a session summary into the user's progress and
	// returns newly unlocked achievements.
	RecordSession(ctx context.Context, summary domain.SessionSummary) ([]domain.Achievement, error)

	// Summary returns the user's progress. The streak reads zero once a
	// calendar day was skipped. Users without history get an empty summary.
	Summary(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)
}

type serviceImpl struct {
	db       *sql.DB
	progress store.ProgressStore
	users    store.UserStore
	logger   *slog.Logger
	now      func() time.Time
}

var _ Service = (*serviceImpl)(nil)

// NewService creates the progress service.
func NewService(db *sql.DB, progress store.ProgressStore, users store.UserStore, log *slog.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if progress == nil || users == nil {
		return nil, fmt.Errorf("progress and user stores cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &serviceImpl{
		db:       db,
		progress: progress,
		users:    users,
		logger:   log.With(slog.String("component", "progress_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// HandleEvent processes session.completed events; other types are ignored.
func (s *serviceImpl) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeSessionCompleted {
		return nil
	}
	var summary domain.SessionSummary
	if err := event.UnmarshalPayload(&summary); err != nil {
		return fmt.Errorf("failed to decode session summary: %w", err)
	}
	_, err := s.RecordSession(ctx, summary)
	return err
}

// location resolves the user's time zone, falling back to UTC.
func (s *serviceImpl) location(ctx context.Context, userID uuid.UUID) *time.Location {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("using UTC for streak, user lookup failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return time.UTC
	}
	return user.Location()
}

func (s *serviceImpl) RecordSession(ctx context.Context, summary domain.SessionSummary) ([]domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", summary.UserID.String()),
		slog.String("session_id", summary.SessionID.String()))

	if summary.UserID == uuid.Nil {
		return nil, domain.ErrEmptyUserID
	}
	day := domain.CalendarDay(summary.EndedAt, s.location(ctx, summary.UserID))

	var unlocked []domain.Achievement
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.progress.WithTx(tx)

		p, err := progress.GetForUpdate(ctx, summary.UserID)
		switch {
		case store.IsNotFoundError(err):
			p = domain.NewProgressSummary(summary.UserID)
		case err != nil:
			return service.NewServiceError(serviceName, "record", "failed to load progress", err)
		}

		unlocked = p.RecordSession(summary, day)
		if err := progress.Save(ctx, p); err != nil {
			return service.NewServiceError(serviceName, "record", "failed to save progress", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to record session", slog.String("error", err.Error()))
		return nil, err
	}

	for _, a := range unlocked {
		log.Info("achievement unlocked", slog.String("code", string(a.Code)))
	}
	return unlocked, nil
}

func (s *serviceImpl) Summary(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return domain.NewProgressSummary(userID), nil
		}
		return nil, service.NewServiceError(serviceName, "summary", "failed to load progress", err)
	}

	p.CurrentStreak = p.ActiveStreak(s.now(), s.location(ctx, userID))
	return p, nil
}
