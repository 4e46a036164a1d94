package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// ComputeNextReview advances an item's scheduler state after a review of the
// given quality performed at ref. It is pure: the result depends only on the
// arguments and current is never modified.
//
// Success (quality >= CorrectnessThreshold):
//
//	repetitions 0 -> FirstInterval
//	repetitions 1 -> SecondInterval
//	otherwise     -> round(interval * easeFactor)
//
// capped at MaxInterval, and repetitions grows by one. A lapse resets repetitions to 0 and the
// interval to FirstInterval. The ease factor is updated for every review with
//
//	EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
//
// and floored at MinEaseFactor, using the pre-review EF for the interval.
// The next review lands interval calendar days after ref in ref's location.
//
// Out of range quality, a negative interval or repetitions count, or an ease
// factor below the floor are programming errors and cause a panic. Callers
// holding untrusted input should go through Service.
func ComputeNextReview(
	params Params,
	current domain.SchedulerState,
	quality domain.Quality,
	ref time.Time,
) domain.SchedulerState {
	if !quality.Valid() {
		panic(fmt.Sprintf("srs: quality %d outside 0..5", quality))
	}
	if err := current.Validate(params.MinEaseFactor); err != nil {
		panic("srs: " + err.Error())
	}

	var interval, repetitions int
	if params.IsSuccess(quality) {
		interval = nextInterval(params, current)
		repetitions = current.Repetitions + 1
	} else {
		interval = params.FirstInterval
		repetitions = 0
	}

	next := addDays(ref, interval)
	return domain.SchedulerState{
		EaseFactor:   nextEaseFactor(params, current.EaseFactor, quality),
		Interval:     interval,
		Repetitions:  repetitions,
		NextReviewAt: &next,
	}
}

func nextInterval(params Params, current domain.SchedulerState) int {
	switch current.Repetitions {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	}

	grown := math.Round(float64(current.Interval) * current.EaseFactor)
	if grown >= float64(params.MaxInterval) {
		return params.MaxInterval
	}
	return int(grown)
}

func nextEaseFactor(params Params, ef float64, quality domain.Quality) float64 {
	miss := float64(domain.QualityMax - quality)
	ef += 0.1 - miss*(0.08+miss*0.02)
	return math.Max(params.MinEaseFactor, ef)
}

// addDays moves ref forward by whole calendar days so the wall-clock time is
// kept across DST transitions.
func addDays(ref time.Time, days int) time.Time {
	return ref.AddDate(0, 0, days)
}
