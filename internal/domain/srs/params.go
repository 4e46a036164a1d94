package srs

import (
	"fmt"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// Default SM-2 parameters.
const (
	DefaultCorrectnessThreshold = domain.Quality(3)
	DefaultFirstInterval        = 1
	DefaultSecondInterval       = 6
	DefaultMinEaseFactor        = 1.3
	// DefaultMaxInterval, about a century, is also the largest accepted
	// MaxInterval.
	DefaultMaxInterval = 36500
)

// Params holds the tunable constants of the scheduler. A Params value is
// immutable once built and safe to share between goroutines.
type Params struct {
	// CorrectnessThreshold is the lowest quality that counts as a success.
	CorrectnessThreshold domain.Quality
	// FirstInterval is the interval after the first success and after a lapse.
	FirstInterval int
	// SecondInterval is the interval after the second consecutive success.
	SecondInterval int
	// MaxInterval caps every interval, in days.
	MaxInterval int
	// MinEaseFactor is the floor applied after every update.
	MinEaseFactor float64
	// InitialEaseFactor is the ease factor of a never-reviewed item.
	InitialEaseFactor float64
}

// ParamsConfig overrides the defaults. Zero fields keep the default.
type ParamsConfig struct {
	CorrectnessThreshold int
	FirstInterval        int
	SecondInterval       int
	MaxInterval          int
	MinEaseFactor        float64
	InitialEaseFactor    float64
}

// DefaultParams returns the classic SM-2 constants.
func DefaultParams() Params {
	return Params{
		CorrectnessThreshold: DefaultCorrectnessThreshold,
		FirstInterval:        DefaultFirstInterval,
		SecondInterval:       DefaultSecondInterval,
		MaxInterval:          DefaultMaxInterval,
		MinEaseFactor:        DefaultMinEaseFactor,
		InitialEaseFactor:    domain.DefaultEaseFactor,
	}
}

// NewParams builds Params from config, falling back to defaults for zero
// fields, and checks the result is coherent.
func NewParams(cfg ParamsConfig) (Params, error) {
	p := DefaultParams()

	if cfg.CorrectnessThreshold != 0 {
		p.CorrectnessThreshold = domain.Quality(cfg.CorrectnessThreshold)
	}
	if cfg.FirstInterval != 0 {
		p.FirstInterval = cfg.FirstInterval
	}
	if cfg.SecondInterval != 0 {
		p.SecondInterval = cfg.SecondInterval
	}
	if cfg.MaxInterval != 0 {
		p.MaxInterval = cfg.MaxInterval
	}
	if cfg.MinEaseFactor != 0 {
		p.MinEaseFactor = cfg.MinEaseFactor
	}
	if cfg.InitialEaseFactor != 0 {
		p.InitialEaseFactor = cfg.InitialEaseFactor
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks the parameters against each other.
func (p Params) Validate() error {
	switch {
	case p.CorrectnessThreshold < 1 || p.CorrectnessThreshold > domain.QualityMax:
		return fmt.Errorf("%w: correctness threshold %d outside 1..5", ErrInvalidParams, p.CorrectnessThreshold)
	case p.FirstInterval < 1:
		return fmt.Errorf("%w: first interval must be at least 1 day", ErrInvalidParams)
	case p.SecondInterval < p.FirstInterval:
		return fmt.Errorf("%w: second interval must not be shorter than the first", ErrInvalidParams)
	case p.MaxInterval < p.SecondInterval || p.MaxInterval > DefaultMaxInterval:
		return fmt.Errorf("%w: max interval must be between the second interval and %d days", ErrInvalidParams, DefaultMaxInterval)
	case p.MinEaseFactor <= 1:
		return fmt.Errorf("%w: minimum ease factor must be greater than 1", ErrInvalidParams)
	case p.InitialEaseFactor < p.MinEaseFactor:
		return fmt.Errorf("%w: initial ease factor below minimum", ErrInvalidParams)
	}
	return nil
}

// InitialState is the scheduler state given to a newly created item.
func (p Params) InitialState() domain.SchedulerState {
	return domain.NewSchedulerState(p.InitialEaseFactor)
}

// IsSuccess reports whether q counts as a successful recall.
func (p Params) IsSuccess(q domain.Quality) bool {
	return q >= p.CorrectnessThreshold
}
