package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// ItemFilter narrows a List query. Zero fields do not filter.
type ItemFilter struct {
	UserID   uuid.UUID
	Category string
	Mastery  domain.MasteryLevel
	// Search matches term or translation case-insensitively.
	Search string
	Limit  int
	Offset int
}

// ItemStore defines the interface for vocabulary item persistence.
type ItemStore interface {
	// Create saves a new item. Returns ErrTermExists when the user already
	// has an item with the same term.
	Create(ctx context.Context, item *domain.VocabItem) error

	// GetByID returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error)

	// GetForUpdate is GetByID with a row lock held until the surrounding
	// transaction ends. It must be called on a store bound with WithTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error)

	// Update writes every mutable column of the item.
	Update(ctx context.Context, item *domain.VocabItem) error

	// Delete returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a user's items ordered by creation time, newest first.
	List(ctx context.Context, filter ItemFilter) ([]*domain.VocabItem, error)

	// ListNew returns never-reviewed items, oldest first.
	ListNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.VocabItem, error)

	// ListDue returns items whose next review is at or before now, the most
	// overdue first and the lowest ease factor breaking ties.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabItem, error)

	// ListOthers returns up to limit items of the user excluding one item,
	// used as a pool of quiz distractors.
	ListOthers(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]*domain.VocabItem, error)

	// CountDueByUser counts due items per user for every user with any.
	CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)

	// WithTx returns an ItemStore bound to tx.
	WithTx(tx *sql.Tx) ItemStore
}
