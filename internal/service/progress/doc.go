// Package progress keeps per-user study streaks, totals and achievements.
// It consumes session.completed events and serves the progress summary.
package progress
