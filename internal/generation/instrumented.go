package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/calresolve/internal/instrumentation"
	"github.com/teemow/calresolve/internal/logging"
)

// Recorder receives generation call measurements.
type Recorder interface {
	RecordGenerationCall(ctx context.Context, purpose, status string, duration time.Duration)
}

type instrumentedGenerator struct {
	next     Generator
	recorder Recorder
	logger   *slog.Logger
}

// WithInstrumentation traces every call, records its duration and status and
// logs failures. A nil recorder only adds logging.
func WithInstrumentation(next Generator, recorder Recorder, logger *slog.Logger) Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumentedGenerator{
		next:     next,
		recorder: recorder,
		logger:   logging.WithService(logger, "generation"),
	}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	ctx, span := instrumentation.StartGenerationSpan(ctx, req.Purpose)
	defer span.End()

	start := time.Now()
	raw, err := g.next.Generate(ctx, req)
	duration := time.Since(start)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
		instrumentation.SetSpanError(span, err)
		g.logger.Warn("generation call failed",
			logging.Operation(req.Purpose),
			slog.Duration(logging.KeyDuration, duration),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
		g.logger.Debug("generation call completed",
			logging.Operation(req.Purpose),
			slog.Duration(logging.KeyDuration, duration),
			slog.Int("output_bytes", len(raw)))
	}

	if g.recorder != nil {
		g.recorder.RecordGenerationCall(ctx, req.Purpose, status, duration)
	}
	return raw, err
}
