package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/credential"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/persona"
	"github.com/rhuss/warroom/pkg/provider"
	"github.com/rhuss/warroom/pkg/upstream"
)

// Provider implements provider.Provider for the Gemini generateContent API.
type Provider struct {
	cfg    Config
	rules  credential.Rules
	client *upstream.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gemini: invalid BaseURL: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	cfg.APIVersion = strings.Trim(cfg.APIVersion, "/")

	if _, err := persona.Lookup(cfg.DefaultPersona); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &Provider{
		cfg:   cfg,
		rules: credential.DefaultRules().WithPrefixes(cfg.BearerPrefixes...),
		client: upstream.NewClient(upstream.Options{
			HTTPClient:  cfg.HTTPClient,
			BackoffBase: cfg.BackoffBase,
		}),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// ModelURL returns the generateContent URL for model, without credentials.
func (p *Provider) ModelURL(model string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent", p.cfg.BaseURL, p.cfg.APIVersion, url.PathEscape(model))
}

// GenerateContent composes the persona prompt for req and posts it to
// the model URL, or to req.Endpoint when set. The request is expected to
// carry defaults already; zero budgets fall back to the API defaults.
func (p *Provider) GenerateContent(ctx context.Context, req api.ConsultRequest) (*upstream.Document, error) {
	req = req.WithDefaults()

	personaName := req.Persona
	if personaName == "" {
		personaName = p.cfg.DefaultPersona
	}
	text, err := persona.Compose(personaName, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	target := req.Endpoint
	if target == "" {
		target = p.ModelURL(req.Model)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	cred := p.rules.Classify(req.APIKey)
	target, err = cred.Apply(target, headers)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	debug.Log("upstream", "generateContent",
		"model", req.Model, "persona", personaName, "credential", cred.Kind,
		"override", req.Endpoint != "", "prompt_len", len(req.Prompt))

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	doc, err := p.client.Post(ctx, target, headers, newTextRequest(text), timeout, req.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("gemini generateContent: %w", err)
	}
	return doc, nil
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
