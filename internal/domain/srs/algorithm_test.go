package srs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC)

func state(ef float64, interval, reps int) domain.SchedulerState {
	return domain.SchedulerState{EaseFactor: ef, Interval: interval, Repetitions: reps}
}

func TestComputeNextReview(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name         string
		current      domain.SchedulerState
		quality      domain.Quality
		wantInterval int
		wantReps     int
		wantEF       float64
	}{
		{
			name:         "first success from fresh state",
			current:      state(2.5, 0, 0),
			quality:      4,
			wantInterval: 1,
			wantReps:     1,
			wantEF:       2.5,
		},
		{
			name:         "second consecutive success",
			current:      state(2.5, 1, 1),
			quality:      4,
			wantInterval: 6,
			wantReps:     2,
			wantEF:       2.5,
		},
		{
			name:         "third success grows multiplicatively",
			current:      state(2.5, 6, 2),
			quality:      5,
			wantInterval: 15,
			wantReps:     3,
			wantEF:       2.6,
		},
		{
			name:         "lapse resets streak",
			current:      state(2.6, 15, 3),
			quality:      1,
			wantInterval: 1,
			wantReps:     0,
			wantEF:       2.06,
		},
		{
			name:         "threshold quality is a success",
			current:      state(2.5, 6, 2),
			quality:      3,
			wantInterval: 15,
			wantReps:     3,
			wantEF:       2.36,
		},
		{
			name:         "quality just below threshold lapses",
			current:      state(2.5, 6, 2),
			quality:      2,
			wantInterval: 1,
			wantReps:     0,
			wantEF:       2.18,
		},
		{
			name:         "interval rounds half away from zero",
			current:      state(2.5, 3, 4),
			quality:      4,
			wantInterval: 8, // 7.5
			wantReps:     5,
			wantEF:       2.5,
		},
		{
			name:         "ease factor is floored",
			current:      state(1.4, 10, 3),
			quality:      0,
			wantInterval: 1,
			wantReps:     0,
			wantEF:       1.3,
		},
		{
			name:         "no upper bound on ease factor",
			current:      state(3.0, 10, 3),
			quality:      5,
			wantInterval: 30,
			wantReps:     4,
			wantEF:       3.1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeNextReview(params, tc.current, tc.quality, refTime)

			assert.Equal(t, tc.wantInterval, got.Interval, "interval")
			assert.Equal(t, tc.wantReps, got.Repetitions, "repetitions")
			assert.InDelta(t, tc.wantEF, got.EaseFactor, 1e-9, "ease factor")
			require.NotNil(t, got.NextReviewAt)
			assert.Equal(t, refTime.AddDate(0, 0, tc.wantInterval), *got.NextReviewAt)
		})
	}
}

func TestComputeNextReviewDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	due := refTime.Add(-time.Hour)
	current := domain.SchedulerState{EaseFactor: 2.5, Interval: 6, Repetitions: 2, NextReviewAt: &due}
	before := current

	ComputeNextReview(DefaultParams(), current, 5, refTime)
	assert.Equal(t, before, current)
	assert.Equal(t, refTime.Add(-time.Hour), due)
}

func TestComputeNextReviewEaseFactorFloor(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	for _, start := range []float64{1.3, 1.5, 2.5, 4.0} {
		s := state(start, 20, 5)
		for i := 0; i < 50; i++ {
			s = ComputeNextReview(params, s, 0, refTime)
			require.GreaterOrEqual(t, s.EaseFactor, params.MinEaseFactor,
				"start=%.1f iteration=%d", start, i)
		}
		assert.InDelta(t, params.MinEaseFactor, s.EaseFactor, 1e-9)
	}
}

func TestComputeNextReviewIsDeterministic(t *testing.T) {
	t.Parallel()

	current := state(2.3, 12, 4)
	a := ComputeNextReview(DefaultParams(), current, 4, refTime)
	b := ComputeNextReview(DefaultParams(), current, 4, refTime)
	assert.Equal(t, a, b)
}

func TestComputeNextReviewCalendarDays(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts on 2024-03-10 in New York; that day has 23 hours.
	ref := time.Date(2024, 3, 9, 12, 0, 0, 0, ny)
	got := ComputeNextReview(DefaultParams(), state(2.5, 0, 0), 4, ref)

	require.NotNil(t, got.NextReviewAt)
	want := time.Date(2024, 3, 10, 12, 0, 0, 0, ny)
	assert.True(t, want.Equal(*got.NextReviewAt), "got %s want %s", got.NextReviewAt, want)
	assert.Equal(t, 23*time.Hour, got.NextReviewAt.Sub(ref))

	// six days across the fall-back transition keep the wall clock too
	ref = time.Date(2024, 11, 1, 8, 15, 0, 0, ny)
	got = ComputeNextReview(DefaultParams(), state(2.5, 1, 1), 5, ref)
	require.NotNil(t, got.NextReviewAt)
	assert.Equal(t, 8, got.NextReviewAt.Hour())
	assert.Equal(t, 15, got.NextReviewAt.Minute())
	assert.Equal(t, 7, got.NextReviewAt.Day())
}

func TestComputeNextReviewPanicsOnContractViolation(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	assert.Panics(t, func() { ComputeNextReview(params, state(2.5, 0, 0), 6, refTime) })
	assert.Panics(t, func() { ComputeNextReview(params, state(2.5, 0, 0), -1, refTime) })
	assert.Panics(t, func() { ComputeNextReview(params, state(2.5, -1, 0), 3, refTime) })
	assert.Panics(t, func() { ComputeNextReview(params, state(1.0, 0, 0), 3, refTime) })
}

func TestComputeNextReviewCustomParams(t *testing.T) {
	t.Parallel()

	params, err := NewParams(ParamsConfig{CorrectnessThreshold: 4, FirstInterval: 2, SecondInterval: 5})
	require.NoError(t, err)

	got := ComputeNextReview(params, state(2.5, 0, 0), 3, refTime)
	assert.Equal(t, 0, got.Repetitions)
	assert.Equal(t, 2, got.Interval)

	got = ComputeNextReview(params, state(2.5, 2, 1), 4, refTime)
	assert.Equal(t, 5, got.Interval)
}

func TestComputeNextReviewCapsInterval(t *testing.T) {
	t.Parallel()

	t.Run("long run of perfect answers stays representable", func(t *testing.T) {
		t.Parallel()
		params := DefaultParams()

		// answered back to back, without waiting for the due date
		s := params.InitialState()
		for i := 0; i < 40; i++ {
			s = ComputeNextReview(params, s, 5, refTime)
			require.LessOrEqual(t, s.Interval, params.MaxInterval, "review %d", i+1)
			require.NotNil(t, s.NextReviewAt)

			_, err := json.Marshal(s)
			require.NoError(t, err, "review %d", i+1)
		}
		assert.Equal(t, params.MaxInterval, s.Interval)
		assert.Less(t, s.NextReviewAt.Year(), 9999)
	})

	t.Run("custom cap", func(t *testing.T) {
		t.Parallel()
		params, err := NewParams(ParamsConfig{MaxInterval: 30})
		require.NoError(t, err)

		testCases := []struct {
			name    string
			current domain.SchedulerState
			want    int
		}{
			{"below cap", state(2.5, 10, 3), 25},
			{"exactly at cap", state(2.5, 12, 3), 30},
			{"above cap", state(2.5, 20, 4), 30},
			{"stored interval beyond cap", state(2.5, 400, 9), 30},
		}
		for _, tc := range testCases {
			got := ComputeNextReview(params, tc.current, 4, refTime)
			assert.Equal(t, tc.want, got.Interval, tc.name)
			assert.Equal(t, refTime.AddDate(0, 0, tc.want), *got.NextReviewAt, tc.name)
		}
	})
}
