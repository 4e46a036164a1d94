package mocks

import (
	"context"

	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/stretchr/testify/mock"
)

// Generator is a testify mock of generation.Generator.
type Generator struct {
	mock.Mock
}

var _ generation.Generator = (*Generator)(nil)

func (m *Generator) GenerateExample(ctx context.Context, req generation.ExampleRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
