package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// ItemStore is a testify mock of store.ItemStore.
type ItemStore struct {
	mock.Mock
}

var _ store.ItemStore = (*ItemStore)(nil)

func items(args mock.Arguments) ([]*domain.VocabItem, error) {
	list, _ := args.Get(0).([]*domain.VocabItem)
	return list, args.Error(1)
}

func (m *ItemStore) Create(ctx context.Context, item *domain.VocabItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

func (m *ItemStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(*domain.VocabItem)
	return it, args.Error(1)
}

func (m *ItemStore) Update(ctx context.Context, item *domain.VocabItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ItemStore) List(ctx context.Context, filter store.ItemFilter) ([]*domain.VocabItem, error) {
	return items(m.Called(ctx, filter))
}

func (m *ItemStore) ListNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.VocabItem, error) {
	return items(m.Called(ctx, userID, limit))
}

func (m *ItemStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabItem, error) {
	return items(m.Called(ctx, userID, now, limit))
}

func (m *ItemStore) ListOthers(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]*domain.VocabItem, error) {
	return items(m.Called(ctx, userID, excludeID, limit))
}

func (m *ItemStore) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, now)
	counts, _ := args.Get(0).(map[uuid.UUID]int)
	return counts, args.Error(1)
}

func (m *ItemStore) WithTx(*sql.Tx) store.ItemStore { return m }
