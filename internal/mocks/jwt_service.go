package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
)

// JWTService is a testify mock of auth.JWTService.
type JWTService struct {
	mock.Mock
}

var _ auth.JWTService = (*JWTService)(nil)

func (m *JWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *JWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(*auth.Claims)
	return c, args.Error(1)
}

func (m *JWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *JWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(*auth.Claims)
	return c, args.Error(1)
}
