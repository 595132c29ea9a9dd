package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger stores l in ctx as the request-scoped logger.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With adds fields to the request-scoped logger.
func With(ctx context.Context, fields ...any) context.Context {
	return WithLogger(ctx, From(ctx).With(fields...))
}

// From returns the request-scoped logger, or the process logger.
func From(ctx context.Context) *slog.Logger {
	return Or(ctx, LoggerWrapper())
}

// Or returns the request-scoped logger, or fallback when ctx carries none.
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}
