package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rhuss/warroom/pkg/persona"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.NonceTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.nonce_ttl must be > 0, got %v", c.Server.NonceTTL))
	}

	// upstream.base_url must be an absolute http(s) URL.
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("upstream.base_url must be an http or https URL, got %q", c.Upstream.BaseURL))
	}
	if strings.Trim(c.Upstream.APIVersion, "/") == "" {
		errs = append(errs, fmt.Errorf("upstream.api_version is required"))
	}
	if c.Upstream.BackoffBase < 0 {
		errs = append(errs, fmt.Errorf("upstream.backoff_base must not be negative, got %v", c.Upstream.BackoffBase))
	}

	if c.Engine.DefaultModel == "" {
		errs = append(errs, fmt.Errorf("engine.default_model is required"))
	}
	if _, err := persona.Lookup(c.Engine.DefaultPersona); err != nil {
		errs = append(errs, fmt.Errorf("engine.default_persona must be one of %v, got %q", persona.Names(), c.Engine.DefaultPersona))
	}
	if c.Engine.MaxRetries < 1 || c.Engine.MaxRetries > 6 {
		errs = append(errs, fmt.Errorf("engine.max_retries must be between 1 and 6, got %d", c.Engine.MaxRetries))
	}
	if c.Engine.TimeoutSeconds < 5 || c.Engine.TimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("engine.timeout must be between 5 and 300, got %d", c.Engine.TimeoutSeconds))
	}
	if c.Engine.MaxPromptSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_prompt_size must be > 0, got %d", c.Engine.MaxPromptSize))
	}

	// ratelimit values only matter when the limiter is on.
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, fmt.Errorf("ratelimit.requests_per_minute must be > 0, got %d", c.RateLimit.RequestsPerMinute))
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, fmt.Errorf("ratelimit.burst must be > 0, got %d", c.RateLimit.Burst))
		}
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch c.MCP.Transport {
	case "streamable-http", "stdio":
		// valid
	default:
		errs = append(errs, fmt.Errorf("mcp.transport must be \"streamable-http\" or \"stdio\", got %q", c.MCP.Transport))
	}
	if c.MCP.Transport == "streamable-http" {
		if c.MCP.Port <= 0 {
			errs = append(errs, fmt.Errorf("mcp.port must be > 0, got %d", c.MCP.Port))
		}
		if !strings.HasPrefix(c.MCP.Path, "/") {
			errs = append(errs, fmt.Errorf("mcp.path must start with \"/\", got %q", c.MCP.Path))
		}
	}

	return errors.Join(errs...)
}
