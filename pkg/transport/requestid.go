package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/warroom/pkg/api"
)

// RequestIDHeader carries the request ID in and out of the HTTP adapter.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that assigns a unique request ID to each
// consultation. If the incoming context already carries a request ID
// (set by the HTTP adapter from the X-Request-ID header), that value is
// used. Otherwise, a new UUID is generated.
//
// The request ID is stored in the context and can be retrieved with
// RequestIDFromContext.
func RequestID() Middleware {
	return func(next Consulter) Consulter {
		return Wrap(next, func(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.Consult(ctx, req)
		})
	}
}

// NewRequestID returns a fresh random request ID.
func NewRequestID() string {
	return uuid.NewString()
}
