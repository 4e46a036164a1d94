package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// SessionStore is a testify mock of store.SessionStore.
type SessionStore struct {
	mock.Mock
}

var _ store.SessionStore = (*SessionStore)(nil)

func (m *SessionStore) Create(ctx context.Context, sess *domain.StudySession) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.StudySession)
	return s, args.Error(1)
}

func (m *SessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.StudySession)
	return s, args.Error(1)
}

func (m *SessionStore) Update(ctx context.Context, sess *domain.StudySession) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *SessionStore) WithTx(*sql.Tx) store.SessionStore { return m }
