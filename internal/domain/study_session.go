package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StudyMode selects which items a session draws from.
type StudyMode string

// Study modes
const (
	// StudyModeLearn draws never-reviewed items.
	StudyModeLearn StudyMode = "learn"
	// StudyModeReview draws items whose next review is due.
	StudyModeReview StudyMode = "review"
)

// ParseStudyMode validates a study mode string.
func ParseStudyMode(s string) (StudyMode, error) {
	switch m := StudyMode(s); m {
	case StudyModeLearn, StudyModeReview:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStudyMode, s)
	}
}

// Study session errors
var (
	ErrSessionEmpty    = errors.New("study session has no items")
	ErrSessionFinished = errors.New("study session is already finished")
)

// StudySession is a bounded batch of items studied in a fixed order.
type StudySession struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Mode       StudyMode   `json:"mode"`
	ItemIDs    []uuid.UUID `json:"item_ids"`
	Position   int         `json:"position"`
	Reviewed   int         `json:"reviewed"`
	Correct    int         `json:"correct"`
	Promoted   int         `json:"promoted"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewStudySession creates a session over the given items, in order.
func NewStudySession(userID uuid.UUID, mode StudyMode, itemIDs []uuid.UUID, at time.Time) (*StudySession, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if _, err := ParseStudyMode(string(mode)); err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, ErrSessionEmpty
	}

	ids := make([]uuid.UUID, len(itemIDs))
	copy(ids, itemIDs)

	return &StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		ItemIDs:   ids,
		StartedAt: at,
		UpdatedAt: at,
	}, nil
}

// Exhausted reports whether every item has been answered.
func (s *StudySession) Exhausted() bool {
	return s.Position >= len(s.ItemIDs)
}

// Finished reports whether the session was closed.
func (s *StudySession) Finished() bool {
	return s.FinishedAt != nil
}

// CurrentItemID returns the item at the cursor.
func (s *StudySession) CurrentItemID() (uuid.UUID, bool) {
	if s.Exhausted() {
		return uuid.Nil, false
	}
	return s.ItemIDs[s.Position], true
}

// Advance records an answer for the current item and moves the cursor.
func (s *StudySession) Advance(success, promoted bool, at time.Time) error {
	if s.Finished() {
		return ErrSessionFinished
	}
	if s.Exhausted() {
		return ErrSessionEmpty
	}

	s.Position++
	s.Reviewed++
	if success {
		s.Correct++
	}
	if promoted {
		s.Promoted++
	}
	s.UpdatedAt = at
	return nil
}

// Skip moves the cursor past the current item without recording an
// answer. It is used when the item was deleted mid-session.
func (s *StudySession) Skip(at time.Time) error {
	if s.Finished() {
		return ErrSessionFinished
	}
	if s.Exhausted() {
		return ErrSessionEmpty
	}
	s.Position++
	s.UpdatedAt = at
	return nil
}

// Finish closes the session. Finishing twice is an error.
func (s *StudySession) Finish(at time.Time) error {
	if s.Finished() {
		return ErrSessionFinished
	}
	finished := at
	s.FinishedAt = &finished
	s.UpdatedAt = at
	return nil
}

// SessionSummary is the outcome of a finished session.
type SessionSummary struct {
	SessionID uuid.UUID     `json:"session_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Mode      StudyMode     `json:"mode"`
	Total     int           `json:"total"`
	Reviewed  int           `json:"reviewed"`
	Correct   int           `json:"correct"`
	Accuracy  float64       `json:"accuracy"`
	Promoted  int           `json:"promoted"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

// Perfect reports a session with at least minReviews reviews, all correct.
func (s SessionSummary) Perfect(minReviews int) bool {
	return s.Reviewed >= minReviews && s.Correct == s.Reviewed
}

// Summary builds the session summary. Unfinished sessions are summarised as of now.
func (s *StudySession) Summary(now time.Time) SessionSummary {
	end := now
	if s.FinishedAt != nil {
		end = *s.FinishedAt
	}

	var accuracy float64
	if s.Reviewed > 0 {
		accuracy = float64(s.Correct) / float64(s.Reviewed)
	}

	return SessionSummary{
		SessionID: s.ID,
		UserID:    s.UserID,
		Mode:      s.Mode,
		Total:     len(s.ItemIDs),
		Reviewed:  s.Reviewed,
		Correct:   s.Correct,
		Accuracy:  accuracy,
		Promoted:  s.Promoted,
		Duration:  end.Sub(s.StartedAt),
		StartedAt: s.StartedAt,
		EndedAt:   end,
	}
}
