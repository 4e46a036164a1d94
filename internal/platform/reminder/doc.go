// Package reminder runs the daily due-items reminder.
//
// A gocron job counts due items per user once a day and submits one
// reminder task per user with anything due. Tasks go through the task
// runner so that a restart does not lose reminders; delivery is delegated
// to a Notifier.
package reminder
