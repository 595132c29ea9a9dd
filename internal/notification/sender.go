package notification

import (
	"context"
	"log/slog"
)

// Sender delivers one envelope. Implementations may deliver later (queues)
// in which case a nil error only means the envelope was accepted.
type Sender interface {
	Send(ctx context.Context, env Envelope) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, env Envelope) error

func (f SenderFunc) Send(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// LogSender writes envelopes to the log instead of mailing them. It is used
// when mail delivery is disabled.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, env Envelope) error {
	s.logger.InfoContext(ctx, "mail delivery disabled, logging notification",
		"kind", env.Kind,
		"audience", env.Audience,
		"to", env.To,
		"subject", env.Subject,
		"template", env.Template,
		"changes", len(env.Data.ChangedFields))
	return nil
}
