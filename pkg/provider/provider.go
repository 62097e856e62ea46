package provider

import (
	"context"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/upstream"
)

// Provider abstracts a generative model backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// GenerateContent sends one composed prompt upstream and returns the
	// decoded response document. Errors are *upstream.StatusError,
	// *upstream.ExhaustedError, or a wrapped context error.
	GenerateContent(ctx context.Context, req api.ConsultRequest) (*upstream.Document, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
