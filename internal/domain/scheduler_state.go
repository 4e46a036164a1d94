package domain

import (
	"fmt"
	"time"
)

// DefaultEaseFactor is the ease factor given to a never-reviewed item.
const DefaultEaseFactor = 2.5

// SchedulerState is the spaced-repetition state tracked per vocabulary item.
// It is advanced only by srs.ComputeNextReview.
type SchedulerState struct {
	EaseFactor   float64    `json:"ease_factor"`
	Interval     int        `json:"interval"`    // days until the next review
	Repetitions  int        `json:"repetitions"` // consecutive successes since the last lapse
	NextReviewAt *time.Time `json:"next_review_at,omitempty"`
}

// NewSchedulerState returns the state of an item that has never been reviewed.
func NewSchedulerState(easeFactor float64) SchedulerState {
	if easeFactor <= 0 {
		easeFactor = DefaultEaseFactor
	}
	return SchedulerState{EaseFactor: easeFactor}
}

// Reviewed reports whether the state has been through at least one review.
func (s SchedulerState) Reviewed() bool {
	return s.NextReviewAt != nil
}

// DueAt reports whether the item is due for review at the given instant.
// Never-reviewed items are not due; they are "new".
func (s SchedulerState) DueAt(t time.Time) bool {
	return s.NextReviewAt != nil && !s.NextReviewAt.After(t)
}

// Validate checks the state invariants against a minimum ease factor.
func (s SchedulerState) Validate(minEaseFactor float64) error {
	if s.Interval < 0 {
		return fmt.Errorf("%w: interval %d is negative", ErrInvalidSchedulerState, s.Interval)
	}
	if s.Repetitions < 0 {
		return fmt.Errorf("%w: repetitions %d is negative", ErrInvalidSchedulerState, s.Repetitions)
	}
	if s.EaseFactor < minEaseFactor {
		return fmt.Errorf("%w: ease factor %.2f below minimum %.2f",
			ErrInvalidSchedulerState, s.EaseFactor, minEaseFactor)
	}
	return nil
}
