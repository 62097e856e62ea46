package api

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MinAPIKeyLength int
	MaxPromptSize   int
	MinRetries      int
	MaxRetries      int
	MinTimeout      int
	MaxTimeout      int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinAPIKeyLength: 10,
		MaxPromptSize:   64 * 1024,
		MinRetries:      1,
		MaxRetries:      6,
		MinTimeout:      5,
		MaxTimeout:      300,
	}
}

// ValidateRequest checks a ConsultRequest for validity. Defaults are
// applied before checking, so zero-valued optional fields are accepted.
// It returns an *APIError describing the first validation failure, or nil
// if the request is valid.
func ValidateRequest(req ConsultRequest, cfg ValidationConfig) *APIError {
	req = req.WithDefaults()

	if len(req.APIKey) < cfg.MinAPIKeyLength {
		return NewInvalidRequestError("api_key",
			fmt.Sprintf("api_key must be at least %d characters", cfg.MinAPIKeyLength))
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return NewInvalidRequestError("prompt", "prompt must not be empty")
	}

	if cfg.MaxPromptSize > 0 && len(req.Prompt) > cfg.MaxPromptSize {
		return NewInvalidRequestError("prompt",
			fmt.Sprintf("prompt exceeds maximum size of %d bytes", cfg.MaxPromptSize))
	}

	if strings.TrimSpace(req.Model) == "" {
		return NewInvalidRequestError("model", "model must not be empty")
	}

	if req.Endpoint != "" {
		if apiErr := validateEndpoint(req.Endpoint); apiErr != nil {
			return apiErr
		}
	}

	if req.MaxRetries < cfg.MinRetries || req.MaxRetries > cfg.MaxRetries {
		return NewInvalidRequestError("max_retries",
			fmt.Sprintf("max_retries must be between %d and %d", cfg.MinRetries, cfg.MaxRetries))
	}

	if req.TimeoutSeconds < cfg.MinTimeout || req.TimeoutSeconds > cfg.MaxTimeout {
		return NewInvalidRequestError("timeout",
			fmt.Sprintf("timeout must be between %d and %d seconds", cfg.MinTimeout, cfg.MaxTimeout))
	}

	return nil
}

func validateEndpoint(endpoint string) *APIError {
	u, err := url.Parse(endpoint)
	if err != nil {
		return NewInvalidRequestError("endpoint", "endpoint must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewInvalidRequestError("endpoint", "endpoint must use http or https")
	}
	if u.Host == "" {
		return NewInvalidRequestError("endpoint", "endpoint must include a host")
	}
	return nil
}
