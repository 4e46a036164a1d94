package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// ProgressStore is a testify mock of store.ProgressStore.
type ProgressStore struct {
	mock.Mock
}

var _ store.ProgressStore = (*ProgressStore)(nil)

func (m *ProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.ProgressSummary)
	return p, args.Error(1)
}

func (m *ProgressStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.ProgressSummary)
	return p, args.Error(1)
}

func (m *ProgressStore) Save(ctx context.Context, p *domain.ProgressSummary) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProgressStore) WithTx(*sql.Tx) store.ProgressStore { return m }
