package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
)

const serviceName = "vocab"

// CreateInput holds the user-supplied fields of a new item.
type CreateInput struct {
	Term        string
	Translation string
	Definition  string
	Example     string
	Category    string
}

// UpdateInput changes the text fields that are non-nil.
type UpdateInput struct {
	Term        *string
	Translation *string
	Definition  *string
	Example     *string
	Category    *string
}

// ItemCreatedPayload is the payload of an item.created event.
type ItemCreatedPayload struct {
	ItemID     uuid.UUID `json:"item_id"`
	HasExample bool      `json:"has_example"`
}

// Service manages vocabulary items. Every operation is scoped to userID and
// returns service.ErrNotOwned for another user's item.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.VocabItem, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error)
	List(ctx context.Context, filter store.ItemFilter) ([]*domain.VocabItem, error)
	Update(ctx context.Context, userID, itemID uuid.UUID, in UpdateInput) (*domain.VocabItem, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	// Reset puts the item back into the never-reviewed state.
	Reset(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error)
}

type serviceImpl struct {
	db        *sql.DB
	items     store.ItemStore
	scheduler srs.Service
	emitter   events.EventEmitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a vocab Service.
func NewService(
	db *sql.DB,
	items store.ItemStore,
	scheduler srs.Service,
	emitter events.EventEmitter,
	log *slog.Logger,
) (Service, error) {
	if db == nil || items == nil || scheduler == nil || emitter == nil {
		return nil, errors.New("vocab service requires a database, item store, scheduler and event emitter")
	}
	if log == nil {
		log = slog.Default()
	}
	return &serviceImpl{
		db:        db,
		items:     items,
		scheduler: scheduler,
		emitter:   emitter,
		logger:    log.With(slog.String("component", "vocab_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

func (s *serviceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.VocabItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewVocabItem(userID, in.Term, in.Translation, s.scheduler.InitialState().EaseFactor)
	if err != nil {
		return nil, validationError(err)
	}
	item.Definition = strings.TrimSpace(in.Definition)
	item.Example = strings.TrimSpace(in.Example)
	item.Category = strings.TrimSpace(in.Category)
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt

	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, store.ErrTermExists) {
			return nil, err
		}
		log.Error("failed to create vocab item", slog.String("error", err.Error()))
		return nil, service.NewServiceError(serviceName, "create", "failed to save item", err)
	}

	event, err := events.NewEvent(events.TypeItemCreated, userID, ItemCreatedPayload{
		ItemID:     item.ID,
		HasExample: item.Example != "",
	})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		// the item is stored; only follow-up work is lost
		log.Warn("failed to emit item created event",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
	}

	log.Info("vocab item created", slog.String("item_id", item.ID.String()))
	return item, nil
}

func (s *serviceImpl) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, s.wrapLoad(ctx, "get", itemID, err)
	}
	if item.UserID != userID {
		return nil, service.ErrNotOwned
	}
	return item, nil
}

func (s *serviceImpl) List(ctx context.Context, filter store.ItemFilter) ([]*domain.VocabItem, error) {
	if filter.UserID == uuid.Nil {
		return nil, validationError(domain.ErrItemUserIDEmpty)
	}
	if filter.Mastery != "" {
		if _, err := domain.ParseMasteryLevel(string(filter.Mastery)); err != nil {
			return nil, err
		}
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrValidation)
	}

	items, err := s.items.List(ctx, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list vocab items",
			slog.String("user_id", filter.UserID.String()),
			slog.String("error", err.Error()))
		return nil, service.NewServiceError(serviceName, "list", "failed to list items", err)
	}
	return items, nil
}

// modify locks an owned item, applies fn and writes it back.
func (s *serviceImpl) modify(
	ctx context.Context,
	op string,
	userID, itemID uuid.UUID,
	fn func(item *domain.VocabItem) error,
) (*domain.VocabItem, error) {
	var updated *domain.VocabItem
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		items := s.items.WithTx(tx)

		item, err := items.GetForUpdate(ctx, itemID)
		if err != nil {
			return s.wrapLoad(ctx, op, itemID, err)
		}
		if item.UserID != userID {
			return service.ErrNotOwned
		}

		if err := fn(item); err != nil {
			return err
		}
		item.UpdatedAt = s.now()
		if err := item.Validate(); err != nil {
			return validationError(err)
		}

		if err := items.Update(ctx, item); err != nil {
			if errors.Is(err, store.ErrTermExists) {
				return err
			}
			return service.NewServiceError(serviceName, op, "failed to save item", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *serviceImpl) Update(ctx context.Context, userID, itemID uuid.UUID, in UpdateInput) (*domain.VocabItem, error) {
	return s.modify(ctx, "update", userID, itemID, func(item *domain.VocabItem) error {
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = strings.TrimSpace(*src)
			}
		}
		set(&item.Term, in.Term)
		set(&item.Translation, in.Translation)
		set(&item.Definition, in.Definition)
		set(&item.Example, in.Example)
		set(&item.Category, in.Category)
		return nil
	})
}

func (s *serviceImpl) Reset(ctx context.Context, userID, itemID uuid.UUID) (*domain.VocabItem, error) {
	return s.modify(ctx, "reset", userID, itemID, func(item *domain.VocabItem) error {
		item.ResetProgress(s.scheduler.InitialState().EaseFactor, s.now())
		return nil
	})
}

func (s *serviceImpl) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return s.wrapLoad(ctx, "delete", itemID, err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("vocab item deleted", slog.String("item_id", itemID.String()))
	return nil
}

// wrapLoad passes not-found through and wraps anything else.
func (s *serviceImpl) wrapLoad(ctx context.Context, op string, itemID uuid.UUID, err error) error {
	if store.IsNotFoundError(err) {
		return store.ErrItemNotFound
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to load vocab item",
		slog.String("operation", op),
		slog.String("item_id", itemID.String()),
		slog.String("error", err.Error()))
	return service.NewServiceError(serviceName, op, "failed to load item", err)
}
