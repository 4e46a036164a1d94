// Package quiz builds multiple-choice practice questions whose distractors
// come from the user's own vocabulary.
package quiz
