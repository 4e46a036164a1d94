package generation

import (
	"context"
	"strings"
)

// ExampleRequest describes the item an example sentence is written for.
type ExampleRequest struct {
	Term        string
	Translation string
	Definition  string
	Category    string
}

// Validate checks that the request names a term.
func (r ExampleRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return ErrEmptyTerm
	}
	return nil
}

// Generator writes example sentences. It is the boundary between the
// application core and external LLM services.
type Generator interface {
	// GenerateExample returns one sentence that uses req.Term in context.
	GenerateExample(ctx context.Context, req ExampleRequest) (string, error)
}
