package notify

import (
	"context"
	"log/slog"
)

// LogSink writes notifications to structured logs. It doubles as the default
// delivery path in development and as the audit trail of what the engine
// asked the delivery system to send.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"log_type", "notification",
		"template", n.Template,
		"user_id", n.UserID,
		"actor_id", n.ActorID,
		"params", n.Params,
	)
	return nil
}
