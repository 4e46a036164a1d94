package gemini

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/vocab-api/internal/generation"
)

const systemInstruction = "You write short example sentences for language learners. " +
	"Reply with exactly one sentence and nothing else."

const promptText = `Write one natural example sentence that uses the term "{{.Term}}".
{{- if .Translation}}
The term means "{{.Translation}}".{{end}}
{{- if .Definition}}
Definition: {{.Definition}}{{end}}
{{- if .Category}}
Topic: {{.Category}}{{end}}
Keep it under 25 words and write it in the same language as the term.`

var promptTemplate = template.Must(template.New("example").Parse(promptText))

// MaxExampleLength caps the accepted sentence length in bytes.
const MaxExampleLength = 500

func renderPrompt(req generation.ExampleRequest) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// cleanExample trims the model's reply to a single line without wrapping
// quotes.
func cleanExample(text string) (string, error) {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = strings.Trim(text, "\"'“”")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("%w: empty text", generation.ErrInvalidResponse)
	}
	if len(text) > MaxExampleLength {
		return "", fmt.Errorf("%w: example is %d bytes", generation.ErrInvalidResponse, len(text))
	}
	return text, nil
}
