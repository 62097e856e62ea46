package engine

import "github.com/rhuss/warroom/pkg/api"

// Config holds configuration for the core engine.
type Config struct {
	// DefaultModel is used when the request omits the model field.
	// Empty means api.DefaultModel.
	DefaultModel string

	// DefaultPersona is used when the request names no persona preset.
	// Empty means persona.Default.
	DefaultPersona string

	// DefaultMaxRetries and DefaultTimeoutSeconds fill zero request budgets.
	// Zero or negative means the api defaults.
	DefaultMaxRetries     int
	DefaultTimeoutSeconds int

	// Validation bounds request fields. The zero value means
	// api.DefaultValidationConfig().
	Validation api.ValidationConfig
}

func (c Config) validation() api.ValidationConfig {
	if c.Validation == (api.ValidationConfig{}) {
		return api.DefaultValidationConfig()
	}
	return c.Validation
}
