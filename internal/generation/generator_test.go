package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExampleRequestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ExampleRequest{Term: "el perro"}.Validate())
	assert.ErrorIs(t, ExampleRequest{Term: "  "}.Validate(), ErrEmptyTerm)
	assert.ErrorIs(t, ExampleRequest{}.Validate(), ErrEmptyTerm)
}
