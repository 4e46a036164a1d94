package study

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// Runner errors
var (
	// ErrNothingToStudy is returned by Start when no item qualifies.
	ErrNothingToStudy = errors.New("nothing to study")

	// ErrSessionComplete is returned when every item of the session has
	// been answered.
	ErrSessionComplete = errors.New("study session is complete")

	// ErrOutOfOrder is returned when an answer names an item other than the
	// one at the session cursor.
	ErrOutOfOrder = errors.New("item is not the current item of the session")
)

// AnswerResult is the outcome of one review.
type AnswerResult struct {
	Item     *domain.VocabItem   `json:"item"`
	Mastery  domain.MasteryLevel `json:"mastery"`
	Success  bool                `json:"success"`
	Promoted bool                `json:"promoted"`
	// Session is nil for reviews outside a session.
	Session *domain.StudySession `json:"session,omitempty"`
}

// Runner drives study sessions.
type Runner interface {
	// Start builds a session for userID. learn draws never-reviewed items
	// oldest first; review draws due items, most overdue first and lowest
	// ease factor breaking ties. limit is clamped to [1, MaxBatchSize], with
	// zero meaning the default batch size.
	//
	// Returns ErrNothingToStudy when no item qualifies.
	Start(ctx context.Context, userID uuid.UUID, mode domain.StudyMode, limit int) (*domain.StudySession, error)

	// Current returns the item at the session cursor. Items deleted since
	// the session started are skipped. Returns ErrSessionComplete when the
	// cursor has passed the last item.
	Current(ctx context.Context, userID, sessionID uuid.UUID) (*domain.VocabItem, *domain.StudySession, error)

	// Answer reviews the item at the cursor with the given quality and
	// advances the session.
	//
	// Errors:
	//   - domain.ErrInvalidQuality when quality is outside 0..5
	//   - ErrOutOfOrder when itemID is not the current item
	//   - ErrSessionComplete / domain.ErrSessionFinished when nothing can be answered
	//   - service.ErrNotOwned when the session belongs to another user
	Answer(ctx context.Context, userID, sessionID, itemID uuid.UUID, quality int) (*AnswerResult, error)

	// Finish closes the session, returns its summary and emits
	// session.completed.
	Finish(ctx context.Context, userID, sessionID uuid.UUID) (domain.SessionSummary, error)

	// ReviewItem reviews a single item outside any session.
	ReviewItem(ctx context.Context, userID, itemID uuid.UUID, quality int) (*AnswerResult, error)
}
