package transport

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/warroom/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to the request-failed sentinel. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Consulter) Consulter {
		return Wrap(next, func(ctx context.Context, req api.ConsultRequest) (turns []api.SpeakerTurn) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic during consultation",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
						"stack", string(debug.Stack()))
					turns = api.SentinelTurn(api.RequestFailedMessage)
				}
			}()
			return next.Consult(ctx, req)
		})
	}
}
