package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// Direction selects what the question shows and what it asks for.
type Direction string

// Quiz directions
const (
	// TermToTranslation shows the term and asks for its translation.
	TermToTranslation Direction = "term_to_translation"
	// TranslationToTerm shows the translation and asks for the term.
	TranslationToTerm Direction = "translation_to_term"
)

// Quiz errors
var (
	ErrInvalidDirection = errors.New("invalid quiz direction")
	ErrNotEnoughItems   = errors.New("not enough items for a quiz")
)

// ParseDirection validates a direction; the empty string selects
// TermToTranslation.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case "":
		return TermToTranslation, nil
	case TermToTranslation, TranslationToTerm:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d Direction) prompt(item *domain.VocabItem) string {
	if d == TranslationToTerm {
		return item.Translation
	}
	return item.Term
}

func (d Direction) answer(item *domain.VocabItem) string {
	if d == TranslationToTerm {
		return item.Term
	}
	return item.Translation
}

// Question is one multiple-choice question.
type Question struct {
	ItemID    uuid.UUID `json:"item_id"`
	Direction Direction `json:"direction"`
	Prompt    string    `json:"prompt"`
	Options   []string  `json:"options"`
	// Answer is the index of the correct option.
	Answer int `json:"answer"`
}

// newQuestion builds an unshuffled question for item with the correct
// answer last, after distractors.
func newQuestion(item *domain.VocabItem, d Direction, distractors []string) *Question {
	options := make([]string, 0, len(distractors)+1)
	options = append(options, distractors...)
	options = append(options, d.answer(item))
	return &Question{
		ItemID:    item.ID,
		Direction: d,
		Prompt:    d.prompt(item),
		Options:   options,
		Answer:    len(options) - 1,
	}
}

// Check reports whether answer matches the correct option, ignoring case
// and surrounding space.
func (q *Question) Check(answer string) bool {
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return false
	}
	return normalize(answer) == normalize(q.Options[q.Answer])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
