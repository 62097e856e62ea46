package gemini

import (
	"net/http"
	"time"
)

// Defaults for the public Gemini API.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1"
)

// Config holds configuration for the Gemini provider adapter.
type Config struct {
	// BaseURL is the API root (e.g., "https://generativelanguage.googleapis.com").
	BaseURL string

	// APIVersion is the path segment after BaseURL. Defaults to "v1".
	APIVersion string

	// DefaultPersona is used when a request names none.
	DefaultPersona string

	// BearerPrefixes are extra credential prefixes treated as bearer tokens
	// in addition to the built-in ones.
	BearerPrefixes []string

	// BackoffBase is the first retry delay. Zero selects the upstream default.
	BackoffBase time.Duration

	// HTTPClient overrides the HTTP client used for upstream calls.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
	}
}
