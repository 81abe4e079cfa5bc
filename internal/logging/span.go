package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a logical unit of work inside a request trace. Ending the span
// logs its duration with the trace metadata attached.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from the context, enriching the logger with
// trace and span identifiers. The root span of a request also mints the
// trace id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	t := traceFromContext(ctx)

	if t.traceID == "" {
		t.traceID = uuid.NewString()
		logger = logger.With(slog.String("trace_id", t.traceID))
	}

	parent := t.spanID
	t.spanID = uuid.NewString()

	logger = logger.With(
		slog.String("span_id", t.spanID),
		slog.String("span_name", name),
	)
	if parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(withTrace(ctx, t), logger)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End emits the span completion entry. Safe on a nil span.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
