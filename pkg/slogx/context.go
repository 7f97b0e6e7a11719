package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithAttemptID scopes the contextual logger to a single handshake attempt.
func WithAttemptID(ctx context.Context, attemptID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("attempt_id", attemptID))
}
