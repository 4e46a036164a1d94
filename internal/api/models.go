package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service/study"
	"github.com/phrazzld/vocab-api/internal/service/vocab"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
	// Timezone is an IANA name; empty means UTC.
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 expiry of the access token.
	ExpiresAt string `json:"expires_at"`
}

// CreateItemRequest is the body of POST /api/items.
type CreateItemRequest struct {
	Term        string `json:"term"        validate:"required,max=200"`
	Translation string `json:"translation" validate:"required,max=500"`
	Definition  string `json:"definition"  validate:"max=2000"`
	Example     string `json:"example"     validate:"max=1000"`
	Category    string `json:"category"    validate:"max=100"`
}

func (r CreateItemRequest) input() vocab.CreateInput {
	return vocab.CreateInput{
		Term:        r.Term,
		Translation: r.Translation,
		Definition:  r.Definition,
		Example:     r.Example,
		Category:    r.Category,
	}
}

// UpdateItemRequest is the body of PUT /api/items/{id}. Omitted fields are
// left unchanged.
type UpdateItemRequest struct {
	Term        *string `json:"term"        validate:"omitnil,min=1,max=200"`
	Translation *string `json:"translation" validate:"omitnil,min=1,max=500"`
	Definition  *string `json:"definition"  validate:"omitnil,max=2000"`
	Example     *string `json:"example"     validate:"omitnil,max=1000"`
	Category    *string `json:"category"    validate:"omitnil,max=100"`
}

func (r UpdateItemRequest) input() vocab.UpdateInput {
	return vocab.UpdateInput{
		Term:        r.Term,
		Translation: r.Translation,
		Definition:  r.Definition,
		Example:     r.Example,
		Category:    r.Category,
	}
}

// ReviewRequest is the body of a review or session answer.
type ReviewRequest struct {
	Quality *int `json:"quality" validate:"required,gte=0,lte=5"`
}

// AnswerRequest is the body of POST /api/sessions/{id}/answers.
type AnswerRequest struct {
	ItemID  uuid.UUID `json:"item_id" validate:"required"`
	Quality *int      `json:"quality" validate:"required,gte=0,lte=5"`
}

// QuizAnswerRequest is the body of POST /api/items/{id}/quiz/answer.
type QuizAnswerRequest struct {
	Direction string `json:"direction"`
	Answer    string `json:"answer" validate:"required,max=500"`
}

// StartSessionRequest is the body of POST /api/sessions.
type StartSessionRequest struct {
	Mode  string `json:"mode"  validate:"required,oneof=learn review"`
	Limit int    `json:"limit" validate:"gte=0"`
}

// SchedulerStateResponse is the scheduling part of an item.
type SchedulerStateResponse struct {
	EaseFactor   float64    `json:"ease_factor"`
	Interval     int        `json:"interval"`
	Repetitions  int        `json:"repetitions"`
	NextReviewAt *time.Time `json:"next_review_at"`
}

// ItemResponse is the public form of a vocabulary item.
type ItemResponse struct {
	ID            uuid.UUID              `json:"id"`
	Term          string                 `json:"term"`
	Translation   string                 `json:"translation"`
	Definition    string                 `json:"definition,omitempty"`
	Example       string                 `json:"example,omitempty"`
	Category      string                 `json:"category,omitempty"`
	State         SchedulerStateResponse `json:"state"`
	Mastery       domain.MasteryLevel    `json:"mastery"`
	TimesStudied  int                    `json:"times_studied"`
	TimesCorrect  int                    `json:"times_correct"`
	Accuracy      float64                `json:"accuracy"`
	LastStudiedAt *time.Time             `json:"last_studied_at"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func itemToResponse(item *domain.VocabItem) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Term:        item.Term,
		Translation: item.Translation,
		Definition:  item.Definition,
		Example:     item.Example,
		Category:    item.Category,
		State: SchedulerStateResponse{
			EaseFactor:   item.State.EaseFactor,
			Interval:     item.State.Interval,
			Repetitions:  item.State.Repetitions,
			NextReviewAt: item.State.NextReviewAt,
		},
		Mastery:       item.Mastery(),
		TimesStudied:  item.TimesStudied,
		TimesCorrect:  item.TimesCorrect,
		Accuracy:      item.Accuracy(),
		LastStudiedAt: item.LastStudiedAt,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// ItemListResponse wraps a page of items.
type ItemListResponse struct {
	Items  []ItemResponse `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SessionResponse is the public form of a study session.
type SessionResponse struct {
	ID         uuid.UUID        `json:"id"`
	Mode       domain.StudyMode `json:"mode"`
	Total      int              `json:"total"`
	Position   int              `json:"position"`
	Reviewed   int              `json:"reviewed"`
	Correct    int              `json:"correct"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

func sessionToResponse(s *domain.StudySession) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		Mode:       s.Mode,
		Total:      len(s.ItemIDs),
		Position:   s.Position,
		Reviewed:   s.Reviewed,
		Correct:    s.Correct,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

// CurrentItemResponse is returned by GET /api/sessions/{id}/current.
type CurrentItemResponse struct {
	Session SessionResponse `json:"session"`
	Item    ItemResponse    `json:"item"`
}

// AnswerResponse is returned after a review.
type AnswerResponse struct {
	Item     ItemResponse        `json:"item"`
	Mastery  domain.MasteryLevel `json:"mastery"`
	Success  bool                `json:"success"`
	Promoted bool                `json:"promoted"`
	Session  *SessionResponse    `json:"session,omitempty"`
}

func answerToResponse(res *study.AnswerResult) AnswerResponse {
	out := AnswerResponse{
		Item:     itemToResponse(res.Item),
		Mastery:  res.Mastery,
		Success:  res.Success,
		Promoted: res.Promoted,
	}
	if res.Session != nil {
		s := sessionToResponse(res.Session)
		out.Session = &s
	}
	return out
}
