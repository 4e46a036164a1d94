package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped with a more specific message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or nil.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidQuality is returned when a review quality is outside 0..5.
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")

	// ErrInvalidSchedulerState is returned when scheduler state breaks its invariants.
	ErrInvalidSchedulerState = errors.New("invalid scheduler state")

	// ErrInvalidStudyMode is returned for an unknown study session mode.
	ErrInvalidStudyMode = errors.New("invalid study mode")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
