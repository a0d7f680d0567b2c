package scheduler

import (
	"context"
	"log/slog"
)

// LogNotifier is a Notifier that writes fired reminders to the structured
// log. It stands in for an on-device delivery mechanism, which is outside
// this system's scope.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
// If logger is nil, a default logger will be used.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{
		logger: logger.With("component", "log_notifier"),
	}
}

// Deliver implements Notifier.
func (n *LogNotifier) Deliver(ctx context.Context, id, title, body string) {
	n.logger.Info("reminder fired",
		"reminder_id", id,
		"title", title,
		"body", body)
}
