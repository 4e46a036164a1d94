// Package study runs study sessions: bounded, ordered batches of new or due
// vocabulary items answered one at a time. Every answer is applied in one
// transaction that locks the item row, advances its scheduler state and moves
// the session cursor, so concurrent reviews of one item are serialised by the
// database.
package study
