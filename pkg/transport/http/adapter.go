package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/csrf"
	"github.com/rhuss/warroom/pkg/observability"
	"github.com/rhuss/warroom/pkg/persona"
	"github.com/rhuss/warroom/pkg/transport"
)

// Adapter serves the war room over HTTP: an HTML form for people and a
// JSON API for programs. Both routes end in the same Consulter.
type Adapter struct {
	consulter transport.Consulter
	inflight  *transport.InFlightRegistry
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// Nonces signs and verifies HTML form nonces. When nil the form is
	// served without a nonce and submissions are not checked.
	Nonces *csrf.Nonces

	// RateLimiter throttles the consult routes. Nil disables limiting.
	RateLimiter *transport.RateLimiter

	// DefaultModel and DefaultPersona prefill the HTML form.
	DefaultModel   string
	DefaultPersona string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:    1 << 20, // 1 MB
		MetricsPath:    "/metrics",
		DefaultModel:   api.DefaultModel,
		DefaultPersona: persona.Default,
	}
}

// consultResponse is the JSON API response body.
type consultResponse struct {
	Conversation []api.SpeakerTurn `json:"conversation"`
}

// NewAdapter creates an HTTP adapter for the given Consulter. Middleware is
// applied to the Consulter in the given order.
func NewAdapter(consulter transport.Consulter, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		consulter = transport.Chain(middlewares...)(consulter)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		consulter: consulter,
		inflight:  transport.NewInFlightRegistry(),
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("GET /{$}", a.handleForm)
	a.mux.Handle("POST /{$}", a.limited(http.HandlerFunc(a.handleFormSubmit)))
	a.mux.Handle("POST /v1/consult", a.limited(http.HandlerFunc(a.handleConsult)))
	a.mux.HandleFunc("GET /healthz", handleHealth)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, observability.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler records
// request metrics and propagates the X-Request-ID header.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(observability.MetricsMiddleware(a.mux))
}

// CancelInFlight cancels every running consultation and returns how many
// were cancelled.
func (a *Adapter) CancelInFlight() int {
	return a.inflight.CancelAll()
}

func (a *Adapter) limited(h http.Handler) http.Handler {
	if a.config.RateLimiter == nil {
		return h
	}
	return a.config.RateLimiter.Middleware(h)
}

// httpRequestIDMiddleware takes the request ID from the X-Request-ID header
// or generates one, stores it in the context, and echoes it on the
// response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(transport.RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = transport.NewRequestID()
		}
		w.Header().Set(transport.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// handleConsult handles POST /v1/consult.
func (a *Adapter) handleConsult(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ConsultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if apiErr := a.consulter.Validate(req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	turns := a.consult(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(consultResponse{Conversation: turns})
}

// handleFormSubmit handles POST / from the HTML form.
func (a *Adapter) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid form: "+err.Error()))
		return
	}

	if a.config.Nonces != nil {
		if err := a.config.Nonces.Verify(r.PostForm.Get("nonce")); err != nil {
			slog.Warn("form nonce rejected",
				"request_id", transport.RequestIDFromContext(r.Context()),
				"error", err,
			)
			transport.WriteAPIError(w, api.NewForbiddenError("invalid or expired form nonce, reload the page"))
			return
		}
	}

	req, apiErr := formRequest(r)
	if apiErr == nil {
		apiErr = a.consulter.Validate(req)
	}

	var turns []api.SpeakerTurn
	if apiErr != nil {
		turns = api.ValidationFailedTurn(apiErr)
	} else {
		turns = a.consult(r.Context(), req)
	}

	a.renderForm(w, r, formView{
		Model:    req.Model,
		Endpoint: req.Endpoint,
		Persona:  req.Persona,
		Prompt:   req.Prompt,
		Turns:    turns,
	})
}

// consult runs one consultation with a cancellable context registered
// under the request ID, so shutdown can stop it.
func (a *Adapter) consult(ctx context.Context, req api.ConsultRequest) []api.SpeakerTurn {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if id == "" {
		id = transport.NewRequestID()
		ctx = transport.ContextWithRequestID(ctx, id)
	}
	a.inflight.Register(id, cancel)
	defer a.inflight.Remove(id)

	return a.consulter.Consult(ctx, req)
}

// formRequest builds a ConsultRequest from posted form values.
func formRequest(r *http.Request) (api.ConsultRequest, *api.APIError) {
	f := r.PostForm
	req := api.ConsultRequest{
		APIKey:   strings.TrimSpace(f.Get("api_key")),
		Prompt:   strings.TrimSpace(f.Get("prompt")),
		Model:    strings.TrimSpace(f.Get("model")),
		Endpoint: strings.TrimSpace(f.Get("endpoint")),
		Persona:  strings.TrimSpace(f.Get("persona")),
	}

	var err error
	if req.MaxRetries, err = formInt(f.Get("max_retries")); err != nil {
		return req, api.NewInvalidRequestError("max_retries", "max_retries must be an integer")
	}
	if req.TimeoutSeconds, err = formInt(f.Get("timeout")); err != nil {
		return req, api.NewInvalidRequestError("timeout", "timeout must be an integer")
	}
	return req, nil
}

func formInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
