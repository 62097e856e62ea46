// Package config provides unified configuration for the warroom front end
// and MCP server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (WARROOM_ prefix, plus PORT and
//     DPA_APP_SECRET for compatibility with existing deployments)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for warroom.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Engine        EngineConfig        `yaml:"engine"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
	MCP           MCPConfig           `yaml:"mcp"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int           `yaml:"port"`            // default: 8080
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // default: 30s
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // default: 30m
	AppSecret     string        `yaml:"app_secret"`      // signs form nonces; random when empty
	AppSecretFile string        `yaml:"app_secret_file"` // _file variant for app_secret
	NonceTTL      time.Duration `yaml:"nonce_ttl"`       // default: 1h
}

// UpstreamConfig holds settings for the generateContent API.
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url"`        // default: https://generativelanguage.googleapis.com
	APIVersion     string        `yaml:"api_version"`     // default: v1
	BackoffBase    time.Duration `yaml:"backoff_base"`    // default: 500ms
	BearerPrefixes []string      `yaml:"bearer_prefixes"` // extra OAuth token prefixes
}

// EngineConfig holds consultation defaults.
type EngineConfig struct {
	DefaultModel   string `yaml:"default_model"`   // default: gemini-2.0-flash
	DefaultPersona string `yaml:"default_persona"` // default: executive
	MaxRetries     int    `yaml:"max_retries"`     // default: 3
	TimeoutSeconds int    `yaml:"timeout"`         // default: 60
	MaxPromptSize  int    `yaml:"max_prompt_size"` // default: 65536

	// APIKey is a server-side credential used by the MCP server when a
	// tool call carries none. The web front end never uses it.
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
}

// RateLimitConfig holds per-client request limits for consultation routes.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`             // default: true
	RequestsPerMinute int  `yaml:"requests_per_minute"` // default: 30
	Burst             int  `yaml:"burst"`               // default: 5

	// TrustForwardedFor keys clients by the first X-Forwarded-For entry.
	// Enable only behind a proxy that sets the header.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// DebugConfig holds debug logging settings. WARROOM_DEBUG and
// WARROOM_LOG_LEVEL take precedence at startup.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma-separated, e.g. "upstream,extract"
	LogLevel   string `yaml:"log_level"`  // default: INFO
}

// MCPConfig holds settings for the MCP server process.
type MCPConfig struct {
	Transport string `yaml:"transport"` // "streamable-http" or "stdio", default: "streamable-http"
	Port      int    `yaml:"port"`      // default: 8081
	Path      string `yaml:"path"`      // default: "/mcp"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Minute,
			NonceTTL:     time.Hour,
		},
		Upstream: UpstreamConfig{
			BaseURL:     "https://generativelanguage.googleapis.com",
			APIVersion:  "v1",
			BackoffBase: 500 * time.Millisecond,
		},
		Engine: EngineConfig{
			DefaultModel:   "gemini-2.0-flash",
			DefaultPersona: "executive",
			MaxRetries:     3,
			TimeoutSeconds: 60,
			MaxPromptSize:  64 * 1024,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Burst:             5,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Debug: DebugConfig{
			LogLevel: "INFO",
		},
		MCP: MCPConfig{
			Transport: "streamable-http",
			Port:      8081,
			Path:      "/mcp",
		},
	}
}
