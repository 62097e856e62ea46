package transport

import (
	"context"

	"github.com/rhuss/warroom/pkg/api"
)

// Consulter runs consultations of the board.
type Consulter interface {
	// Validate checks req after defaults are applied. It returns nil when
	// the request may be consulted.
	Validate(req api.ConsultRequest) *api.APIError

	// Consult runs req and returns the conversation. The result is never
	// empty: failures are reported as a single sentinel turn.
	Consult(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn
}

// ConsultFunc is an adapter that allows using an ordinary function as a
// Consulter. Its Validate accepts every request.
type ConsultFunc func(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn

// Consult calls f(ctx, req).
func (f ConsultFunc) Consult(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
	return f(ctx, req)
}

// Validate accepts every request.
func (f ConsultFunc) Validate(api.ConsultRequest) *api.APIError {
	return nil
}

// wrapped replaces Consult and delegates Validate to the inner Consulter.
type wrapped struct {
	Consulter
	consult ConsultFunc
}

func (w wrapped) Consult(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
	return w.consult(ctx, req)
}

// Wrap returns a Consulter that validates with next and consults with fn.
// Middleware use it to intercept Consult only.
func Wrap(next Consulter, fn ConsultFunc) Consulter {
	return wrapped{Consulter: next, consult: fn}
}
