package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/warroom/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// consultation with the request ID, model, persona, turn count, and
// duration. Credentials and prompt text are never logged.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Consulter) Consulter {
		return Wrap(next, func(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
			start := time.Now()

			turns := next.Consult(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("model", req.Model),
				slog.String("persona", req.Persona),
				slog.Bool("endpoint_override", req.Endpoint != ""),
				slog.Int("turns", len(turns)),
				slog.Duration("duration", time.Since(start)),
			}

			if api.IsSentinel(turns) {
				attrs = append(attrs, slog.String("sentinel", turns[0].Message))
				logger.LogAttrs(ctx, slog.LevelWarn, "consultation degraded", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "consultation completed", attrs...)
			}

			return turns
		})
	}
}
