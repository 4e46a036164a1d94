// Package task runs background jobs such as example-sentence enrichment and
// due-item reminders. Tasks are persisted before they are queued so that
// work interrupted by a restart is recovered and executed again.
package task
