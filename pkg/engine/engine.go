package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/extract"
	"github.com/rhuss/warroom/pkg/observability"
	"github.com/rhuss/warroom/pkg/persona"
	"github.com/rhuss/warroom/pkg/provider"
	"github.com/rhuss/warroom/pkg/transport"
)

// Consultation results recorded in warroom_consultations_total.
const (
	ResultOK             = "ok"
	ResultParseFailed    = "parse_failed"
	ResultUpstreamFailed = "upstream_failed"
	ResultInvalid        = "invalid"
)

// Engine orchestrates a consultation between the transport layer and the
// provider backend. It implements transport.Consulter.
type Engine struct {
	provider provider.Provider
	cfg      Config
}

// Ensure Engine implements transport.Consulter at compile time.
var _ transport.Consulter = (*Engine)(nil)

// New creates a new Engine. The provider must not be nil.
func New(p provider.Provider, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: provider must not be nil")
	}
	if _, err := persona.Lookup(cfg.DefaultPersona); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{provider: p, cfg: cfg}, nil
}

// Defaults returns req with every empty optional field filled from the
// engine configuration, then from the api defaults.
func (e *Engine) Defaults(req api.ConsultRequest) api.ConsultRequest {
	if req.Model == "" {
		req.Model = e.cfg.DefaultModel
	}
	if req.Persona == "" {
		req.Persona = e.cfg.DefaultPersona
	}
	if req.MaxRetries == 0 && e.cfg.DefaultMaxRetries > 0 {
		req.MaxRetries = e.cfg.DefaultMaxRetries
	}
	if req.TimeoutSeconds == 0 && e.cfg.DefaultTimeoutSeconds > 0 {
		req.TimeoutSeconds = e.cfg.DefaultTimeoutSeconds
	}
	return req.WithDefaults()
}

// Validate checks req after defaults are applied, including the persona
// preset name.
func (e *Engine) Validate(req api.ConsultRequest) *api.APIError {
	req = e.Defaults(req)
	if apiErr := api.ValidateRequest(req, e.cfg.validation()); apiErr != nil {
		return apiErr
	}
	if _, err := persona.Lookup(req.Persona); err != nil {
		return api.NewInvalidRequestError("persona",
			fmt.Sprintf("persona must be one of %v", persona.Names()))
	}
	return nil
}

// Consult runs one consultation and always returns at least one turn.
// Validation failures, upstream failures and unparsable model output are
// each reported as a single sentinel turn.
func (e *Engine) Consult(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
	req = e.Defaults(req)

	if apiErr := e.Validate(req); apiErr != nil {
		slog.Warn("consultation rejected", "param", apiErr.Param, "error", apiErr.Message)
		observability.ConsultationsTotal.WithLabelValues(ResultInvalid).Inc()
		return api.ValidationFailedTurn(apiErr)
	}

	observability.ConsultationsInFlight.Inc()
	defer observability.ConsultationsInFlight.Dec()

	debug.Log("engine", "consulting", "provider", e.provider.Name(), "model", req.Model, "persona", req.Persona)

	doc, err := e.provider.GenerateContent(ctx, req)
	if err != nil {
		slog.Error("consultation failed", "provider", e.provider.Name(), "model", req.Model, "error", err)
		observability.ConsultationsTotal.WithLabelValues(ResultUpstreamFailed).Inc()
		return api.SentinelTurn(api.RequestFailedMessage)
	}

	turns := extract.Turns(doc)
	if api.IsSentinel(turns) {
		observability.ConsultationsTotal.WithLabelValues(ResultParseFailed).Inc()
	} else {
		observability.ConsultationsTotal.WithLabelValues(ResultOK).Inc()
	}
	debug.Log("engine", "consultation complete", "turns", len(turns))
	return turns
}
