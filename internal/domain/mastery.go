package domain

import "fmt"

// MasteryLevel is a coarse classification of how well a user knows an item.
// It is derived from study counters and never drives scheduling.
type MasteryLevel string

// Mastery levels, in ascending order.
const (
	MasteryNew       MasteryLevel = "new"
	MasteryLearning  MasteryLevel = "learning"
	MasteryReviewing MasteryLevel = "reviewing"
	MasteryMastered  MasteryLevel = "mastered"
)

// Thresholds used by ClassifyMastery.
const (
	learningMinStudies  = 3
	learningMinAccuracy = 0.6
	masteredMinStudies  = 5
	masteredMinAccuracy = 0.9
)

// ClassifyMastery derives the mastery level from cumulative study count and
// correct-answer count.
func ClassifyMastery(timesStudied, timesCorrect int) MasteryLevel {
	if timesStudied <= 0 {
		return MasteryNew
	}

	accuracy := float64(timesCorrect) / float64(timesStudied)
	switch {
	case timesStudied < learningMinStudies || accuracy < learningMinAccuracy:
		return MasteryLearning
	case timesStudied >= masteredMinStudies && accuracy >= masteredMinAccuracy:
		return MasteryMastered
	default:
		return MasteryReviewing
	}
}

// ParseMasteryLevel validates a mastery level string.
func ParseMasteryLevel(s string) (MasteryLevel, error) {
	switch l := MasteryLevel(s); l {
	case MasteryNew, MasteryLearning, MasteryReviewing, MasteryMastered:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown mastery level %q", ErrValidation, s)
	}
}
