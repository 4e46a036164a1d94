package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTermLength is the longest term, in runes, an item may carry.
const MaxTermLength = 200

// Vocabulary item validation errors
var (
	ErrItemIDEmpty          = errors.New("item ID cannot be empty")
	ErrItemUserIDEmpty      = errors.New("item user ID cannot be empty")
	ErrItemTermEmpty        = errors.New("item term cannot be empty")
	ErrItemTermTooLong      = errors.New("item term is too long")
	ErrItemTranslationEmpty = errors.New("item translation cannot be empty")
	ErrItemCountersInvalid  = errors.New("item study counters are inconsistent")
)

// VocabItem is a single word or phrase a user is learning, together with its
// spaced-repetition state and study counters.
type VocabItem struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Term        string         `json:"term"`
	Translation string         `json:"translation"`
	Definition  string         `json:"definition,omitempty"`
	Example     string         `json:"example,omitempty"`
	Category    string         `json:"category,omitempty"`
	State       SchedulerState `json:"state"`

	// Caller-side bookkeeping, not scheduler state.
	TimesStudied  int        `json:"times_studied"`
	TimesCorrect  int        `json:"times_correct"`
	LastStudiedAt *time.Time `json:"last_studied_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVocabItem creates a never-reviewed item for the given user.
func NewVocabItem(userID uuid.UUID, term, translation string, easeFactor float64) (*VocabItem, error) {
	now := time.Now().UTC()
	item := &VocabItem{
		ID:          uuid.New(),
		UserID:      userID,
		Term:        strings.TrimSpace(term),
		Translation: strings.TrimSpace(translation),
		State:       NewSchedulerState(easeFactor),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks if the item has valid data.
func (i *VocabItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}
	if i.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}
	if strings.TrimSpace(i.Term) == "" {
		return ErrItemTermEmpty
	}
	if utf8.RuneCountInString(i.Term) > MaxTermLength {
		return ErrItemTermTooLong
	}
	if strings.TrimSpace(i.Translation) == "" {
		return ErrItemTranslationEmpty
	}
	if i.State.EaseFactor <= 0 || i.State.Interval < 0 || i.State.Repetitions < 0 {
		return ErrInvalidSchedulerState
	}
	if i.TimesStudied < 0 || i.TimesCorrect < 0 || i.TimesCorrect > i.TimesStudied {
		return ErrItemCountersInvalid
	}
	return nil
}

// RecordReview stores a freshly computed scheduler state on the item and
// updates the study counters.
func (i *VocabItem) RecordReview(next SchedulerState, success bool, at time.Time) {
	i.State = next
	i.TimesStudied++
	if success {
		i.TimesCorrect++
	}
	studied := at
	i.LastStudiedAt = &studied
	i.UpdatedAt = at
}

// ResetProgress puts the item back into the never-reviewed state.
func (i *VocabItem) ResetProgress(easeFactor float64, at time.Time) {
	i.State = NewSchedulerState(easeFactor)
	i.TimesStudied = 0
	i.TimesCorrect = 0
	i.LastStudiedAt = nil
	i.UpdatedAt = at
}

// Accuracy is the share of correct reviews, or 0 for an unstudied item.
func (i *VocabItem) Accuracy() float64 {
	if i.TimesStudied == 0 {
		return 0
	}
	return float64(i.TimesCorrect) / float64(i.TimesStudied)
}

// Mastery classifies the item from its study counters.
func (i *VocabItem) Mastery() MasteryLevel {
	return ClassifyMastery(i.TimesStudied, i.TimesCorrect)
}
