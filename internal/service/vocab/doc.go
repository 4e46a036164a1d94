// Package vocab manages a user's vocabulary items: creation, listing with
// filters, text edits, deletion and resetting study progress.
package vocab
