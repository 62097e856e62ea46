package api

// Default values applied by [ConsultRequest.WithDefaults].
const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultMaxRetries     = 3
	DefaultTimeoutSeconds = 60
)

// ConsultRequest is the input for one consultation of the board. It is
// built once per invocation by the caller and never mutated afterwards.
type ConsultRequest struct {
	// APIKey is the upstream credential: either a plain API key or an
	// OAuth bearer token. It is used in flight only.
	APIKey string `json:"api_key"`

	// Prompt is the user's pitch.
	Prompt string `json:"prompt"`

	// Model is the upstream model identifier.
	Model string `json:"model,omitempty"`

	// Endpoint optionally replaces the generated generateContent URL.
	Endpoint string `json:"endpoint,omitempty"`

	// MaxRetries is the total attempt budget for the upstream call.
	MaxRetries int `json:"max_retries,omitempty"`

	// TimeoutSeconds bounds each individual upstream attempt.
	TimeoutSeconds int `json:"timeout,omitempty"`

	// Persona selects the preamble template. Empty means the configured default.
	Persona string `json:"persona,omitempty"`
}

// WithDefaults returns a copy of r with zero-valued optional fields set to
// their defaults. The receiver is left untouched.
func (r ConsultRequest) WithDefaults() ConsultRequest {
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultMaxRetries
	}
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return r
}
