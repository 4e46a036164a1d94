package srs

import (
	"testing"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	assert.Equal(t, domain.Quality(3), p.CorrectnessThreshold)
	assert.Equal(t, 1, p.FirstInterval)
	assert.Equal(t, 6, p.SecondInterval)
	assert.Equal(t, 36500, p.MaxInterval)
	assert.Equal(t, 1.3, p.MinEaseFactor)
	assert.Equal(t, 2.5, p.InitialEaseFactor)
	assert.NoError(t, p.Validate())

	assert.Equal(t, domain.NewSchedulerState(2.5), p.InitialState())
	assert.True(t, p.IsSuccess(3))
	assert.False(t, p.IsSuccess(2))
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	p, err := NewParams(ParamsConfig{MinEaseFactor: 1.5, InitialEaseFactor: 2.2})
	require.NoError(t, err)
	assert.Equal(t, 1.5, p.MinEaseFactor)
	assert.Equal(t, 2.2, p.InitialEaseFactor)
	assert.Equal(t, 6, p.SecondInterval, "unset fields keep defaults")

	p, err = NewParams(ParamsConfig{MaxInterval: 365})
	require.NoError(t, err)
	assert.Equal(t, 365, p.MaxInterval)

	invalid := []ParamsConfig{
		{CorrectnessThreshold: 6},
		{FirstInterval: -1},
		{FirstInterval: 7},
		{MinEaseFactor: 0.9},
		{MinEaseFactor: 2.0, InitialEaseFactor: 1.8},
		{MaxInterval: 5},
		{MaxInterval: DefaultMaxInterval + 1},
		{MaxInterval: -3},
	}
	for _, cfg := range invalid {
		_, err := NewParams(cfg)
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", cfg)
	}
}
