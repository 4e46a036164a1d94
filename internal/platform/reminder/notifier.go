package reminder

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
)

// Notifier delivers a reminder to a user.
type Notifier interface {
	NotifyDue(ctx context.Context, userID uuid.UUID, dueCount int) error
}

// LogNotifier writes reminders to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{logger: log.With(slog.String("component", "reminder_notifier"))}
}

// NotifyDue implements Notifier.
func (n *LogNotifier) NotifyDue(ctx context.Context, userID uuid.UUID, dueCount int) error {
	logger.FromContextOrDefault(ctx, n.logger).InfoContext(ctx, "items due for review",
		slog.String("user_id", userID.String()),
		slog.Int("due_count", dueCount))
	return nil
}
