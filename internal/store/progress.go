package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// ProgressStore persists per-user streaks, totals and achievements.
type ProgressStore interface {
	// Get returns ErrProgressNotFound for a user without history.
	Get(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)

	// GetForUpdate is Get with a row lock; requires a store bound with WithTx.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)

	// Save upserts the summary and inserts any achievements not yet stored.
	Save(ctx context.Context, progress *domain.ProgressSummary) error

	WithTx(tx *sql.Tx) ProgressStore
}
