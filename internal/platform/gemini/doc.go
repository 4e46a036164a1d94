// Package gemini implements generation.Generator on Google's Gemini API.
//
// GeminiGenerator renders a prompt for a vocabulary item, calls the model
// with exponential backoff for transient failures, and returns the first
// candidate's text as a single example sentence. Safety blocks and malformed
// responses are permanent and are not retried.
package gemini
