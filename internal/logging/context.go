package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	traceKey
)

// trace carries the identifiers a request accumulates as it moves through
// the middleware and span layers.
type trace struct {
	requestID string
	traceID   string
	spanID    string
}

// WithLogger stores the request-scoped logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger, falling back to
// slog.Default when the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID records the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	t := traceFromContext(ctx)
	t.requestID = requestID
	return context.WithValue(ctx, traceKey, t)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).requestID
}

func traceFromContext(ctx context.Context) trace {
	if ctx == nil {
		return trace{}
	}
	if t, ok := ctx.Value(traceKey).(trace); ok {
		return t
	}
	return trace{}
}

func withTrace(ctx context.Context, t trace) context.Context {
	return context.WithValue(ctx, traceKey, t)
}
