package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// GetForUpdate locks the session row; requires a store bound with WithTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// Update writes cursor, counters and finish time.
	Update(ctx context.Context, session *domain.StudySession) error

	WithTx(tx *sql.Tx) SessionStore
}
