package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
)

const serviceName = "study"

var _ Runner = (*runnerImpl)(nil)

type runnerImpl struct {
	db        *sql.DB
	users     store.UserStore
	items     store.ItemStore
	sessions  store.SessionStore
	scheduler srs.Service
	emitter   events.EventEmitter
	cfg       config.StudyConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(
	db *sql.DB,
	users store.UserStore,
	items store.ItemStore,
	sessions store.SessionStore,
	scheduler srs.Service,
	emitter events.EventEmitter,
	cfg config.StudyConfig,
	log *slog.Logger,
) Runner {
	if db == nil || users == nil || items == nil || sessions == nil || scheduler == nil || emitter == nil {
		panic("study runner requires a database, stores, scheduler and event emitter")
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.DefaultBatchSize <= 0 || cfg.DefaultBatchSize > cfg.MaxBatchSize {
		cfg.DefaultBatchSize = min(20, cfg.MaxBatchSize)
	}
	if log == nil {
		log = slog.Default()
	}

	return &runnerImpl{
		db:        db,
		users:     users,
		items:     items,
		sessions:  sessions,
		scheduler: scheduler,
		emitter:   emitter,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "study_runner")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *runnerImpl) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return r.cfg.DefaultBatchSize
	case limit > r.cfg.MaxBatchSize:
		return r.cfg.MaxBatchSize
	default:
		return limit
	}
}

func (r *runnerImpl) Start(ctx context.Context, userID uuid.UUID, mode domain.StudyMode, limit int) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if _, err := domain.ParseStudyMode(string(mode)); err != nil {
		return nil, err
	}
	limit = r.clampLimit(limit)
	now := r.now()

	var (
		batch []*domain.VocabItem
		err   error
	)
	switch mode {
	case domain.StudyModeLearn:
		batch, err = r.items.ListNew(ctx, userID, limit)
	case domain.StudyModeReview:
		batch, err = r.items.ListDue(ctx, userID, now, limit)
	}
	if err != nil {
		log.Error("failed to select session items",
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()))
		return nil, service.NewServiceError(serviceName, "start", "failed to select items", err)
	}
	if len(batch) == 0 {
		return nil, ErrNothingToStudy
	}

	ids := make([]uuid.UUID, len(batch))
	for i, it := range batch {
		ids[i] = it.ID
	}

	sess, err := domain.NewStudySession(userID, mode, ids, now)
	if err != nil {
		return nil, err
	}
	if err := r.sessions.Create(ctx, sess); err != nil {
		log.Error("failed to create study session", slog.String("error", err.Error()))
		return nil, service.NewServiceError(serviceName, "start", "failed to save session", err)
	}

	log.Info("study session started",
		slog.String("session_id", sess.ID.String()),
		slog.String("mode", string(mode)),
		slog.Int("items", len(ids)))
	return sess, nil
}

// loadSession fetches a session through sessions and checks ownership.
func (r *runnerImpl) loadSession(
	ctx context.Context,
	get func(context.Context, uuid.UUID) (*domain.StudySession, error),
	op string,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	sess, err := get(ctx, sessionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrSessionNotFound
		}
		return nil, service.NewServiceError(serviceName, op, "failed to load session", err)
	}
	if sess.UserID != userID {
		return nil, service.ErrNotOwned
	}
	return sess, nil
}

func (r *runnerImpl) Current(ctx context.Context, userID, sessionID uuid.UUID) (*domain.VocabItem, *domain.StudySession, error) {
	for {
		sess, err := r.loadSession(ctx, r.sessions.GetByID, "current", userID, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if sess.Finished() {
			return nil, sess, domain.ErrSessionFinished
		}
		itemID, ok := sess.CurrentItemID()
		if !ok {
			return nil, sess, ErrSessionComplete
		}

		item, err := r.items.GetByID(ctx, itemID)
		if err == nil {
			return item, sess, nil
		}
		if !store.IsNotFoundError(err) {
			return nil, nil, service.NewServiceError(serviceName, "current", "failed to load item", err)
		}

		if err := r.skip(ctx, userID, sessionID, itemID); err != nil {
			return nil, nil, err
		}
	}
}

// skip moves the cursor past a deleted item if it is still current.
func (r *runnerImpl) skip(ctx context.Context, userID, sessionID, itemID uuid.UUID) error {
	return store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := r.sessions.WithTx(tx)
		sess, err := r.loadSession(ctx, sessions.GetForUpdate, "current", userID, sessionID)
		if err != nil {
			return err
		}
		if current, ok := sess.CurrentItemID(); !ok || current != itemID {
			return nil
		}
		if err := sess.Skip(r.now()); err != nil {
			return err
		}
		logger.FromContextOrDefault(ctx, r.logger).Info("skipped deleted item",
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", itemID.String()))
		return sessions.Update(ctx, sess)
	})
}

// location resolves the user's time zone, falling back to UTC.
func (r *runnerImpl) location(ctx context.Context, userID uuid.UUID) *time.Location {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Warn("scheduling in UTC, user lookup failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return time.UTC
	}
	return user.Location()
}

// review locks the item, runs the scheduler and saves the result. It must
// run inside a transaction. Due dates are computed in loc so a review keeps
// its local time of day across DST changes.
func (r *runnerImpl) review(
	ctx context.Context,
	items store.ItemStore,
	op string,
	userID, itemID uuid.UUID,
	quality domain.Quality,
	now time.Time,
	loc *time.Location,
) (*AnswerResult, error) {
	item, err := items.GetForUpdate(ctx, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrItemNotFound
		}
		return nil, service.NewServiceError(serviceName, op, "failed to load item", err)
	}
	if item.UserID != userID {
		return nil, service.ErrNotOwned
	}

	before := item.Mastery()
	next, err := r.scheduler.Next(item.State, quality, now.In(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule item %s: %w", itemID, err)
	}
	if next.NextReviewAt != nil {
		due := next.NextReviewAt.UTC()
		next.NextReviewAt = &due
	}
	success := r.scheduler.IsSuccess(quality)
	item.RecordReview(next, success, now)

	if err := items.Update(ctx, item); err != nil {
		return nil, service.NewServiceError(serviceName, op, "failed to save item", err)
	}

	after := item.Mastery()
	return &AnswerResult{
		Item:     item,
		Mastery:  after,
		Success:  success,
		Promoted: before != domain.MasteryMastered && after == domain.MasteryMastered,
	}, nil
}

func (r *runnerImpl) Answer(
	ctx context.Context,
	userID, sessionID, itemID uuid.UUID,
	quality int,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	q, err := domain.ParseQuality(quality)
	if err != nil {
		return nil, err
	}

	loc := r.location(ctx, userID)

	var result *AnswerResult
	err = store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := r.sessions.WithTx(tx)

		sess, err := r.loadSession(ctx, sessions.GetForUpdate, "answer", userID, sessionID)
		if err != nil {
			return err
		}
		if sess.Finished() {
			return domain.ErrSessionFinished
		}
		current, ok := sess.CurrentItemID()
		if !ok {
			return ErrSessionComplete
		}
		if current != itemID {
			return ErrOutOfOrder
		}

		now := r.now()
		res, err := r.review(ctx, r.items.WithTx(tx), "answer", userID, itemID, q, now, loc)
		if err != nil {
			return err
		}

		if err := sess.Advance(res.Success, res.Promoted, now); err != nil {
			return err
		}
		if err := sessions.Update(ctx, sess); err != nil {
			return service.NewServiceError(serviceName, "answer", "failed to save session", err)
		}

		res.Session = sess
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("answer recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", quality),
		slog.Int("interval_days", result.Item.State.Interval))
	return result, nil
}

func (r *runnerImpl) ReviewItem(ctx context.Context, userID, itemID uuid.UUID, quality int) (*AnswerResult, error) {
	q, err := domain.ParseQuality(quality)
	if err != nil {
		return nil, err
	}

	loc := r.location(ctx, userID)

	var result *AnswerResult
	err = store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := r.review(ctx, r.items.WithTx(tx), "review", userID, itemID, q, r.now(), loc)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *runnerImpl) Finish(ctx context.Context, userID, sessionID uuid.UUID) (domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	var summary domain.SessionSummary
	err := store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := r.sessions.WithTx(tx)

		sess, err := r.loadSession(ctx, sessions.GetForUpdate, "finish", userID, sessionID)
		if err != nil {
			return err
		}
		now := r.now()
		if err := sess.Finish(now); err != nil {
			return err
		}
		if err := sessions.Update(ctx, sess); err != nil {
			return service.NewServiceError(serviceName, "finish", "failed to save session", err)
		}
		summary = sess.Summary(now)
		return nil
	})
	if err != nil {
		return domain.SessionSummary{}, err
	}

	event, err := events.NewEvent(events.TypeSessionCompleted, userID, summary)
	if err == nil {
		err = r.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Error("failed to emit session completed event",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
	}

	log.Info("study session finished",
		slog.String("session_id", sessionID.String()),
		slog.Int("reviewed", summary.Reviewed),
		slog.Int("correct", summary.Correct))
	return summary, nil
}

// IsConflict reports errors that mean the request no longer matches the
// session state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOutOfOrder) ||
		errors.Is(err, ErrSessionComplete) ||
		errors.Is(err, domain.ErrSessionFinished)
}
