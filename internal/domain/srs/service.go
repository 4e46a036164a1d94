package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// Common errors
var (
	ErrInvalidParams = errors.New("invalid scheduler parameters")
	ErrInvalidState  = errors.New("invalid scheduler state")
)

// Service is the validating entry point to the scheduler used by the
// application services.
type Service interface {
	// Next validates its inputs and returns the state after a review.
	Next(current domain.SchedulerState, quality domain.Quality, now time.Time) (domain.SchedulerState, error)

	// InitialState returns the state for a newly created item.
	InitialState() domain.SchedulerState

	// IsSuccess reports whether the quality counts as a correct answer.
	IsSuccess(quality domain.Quality) bool

	// Params exposes the active parameters.
	Params() Params
}

type defaultService struct {
	params Params
}

// NewDefaultService creates a service with the classic SM-2 parameters.
func NewDefaultService() Service {
	return &defaultService{params: DefaultParams()}
}

// NewServiceWithParams creates a service with custom parameters.
func NewServiceWithParams(params Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

func (s *defaultService) Next(
	current domain.SchedulerState,
	quality domain.Quality,
	now time.Time,
) (domain.SchedulerState, error) {
	if !quality.Valid() {
		return domain.SchedulerState{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuality, quality)
	}
	if math.IsNaN(current.EaseFactor) || current.EaseFactor <= 1 {
		return domain.SchedulerState{}, fmt.Errorf("%w: ease factor %v", ErrInvalidState, current.EaseFactor)
	}
	// items stored under a lower floor are lifted to the current one
	current.EaseFactor = math.Max(current.EaseFactor, s.params.MinEaseFactor)
	if err := current.Validate(s.params.MinEaseFactor); err != nil {
		return domain.SchedulerState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	return ComputeNextReview(s.params, current, quality, now), nil
}

func (s *defaultService) InitialState() domain.SchedulerState {
	return s.params.InitialState()
}

func (s *defaultService) IsSuccess(quality domain.Quality) bool {
	return s.params.IsSuccess(quality)
}

func (s *defaultService) Params() Params {
	return s.params
}
