// Package domain contains the core business entities of the vocabulary
// service: users, vocabulary items with their spaced-repetition state,
// study sessions and progress counters. It has no knowledge of storage or
// transport.
package domain
