// Package transport defines the handler contract and middleware chain for
// the warroom front ends (HTML form, JSON API, MCP tool).
//
// # Handler Interface
//
// Consulter is the contract between the transport layer and the engine:
// Validate checks a request and reports the offending parameter, Consult
// runs it and always returns at least one speaker turn. Failures inside a
// consultation never surface as errors; they arrive as sentinel turns.
//
// # Middleware
//
// The middleware chain wraps a Consulter with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID, UUIDs from github.com/google/uuid), and structured
// logging via log/slog. RateLimiter is HTTP-level middleware that limits
// consultations per client with golang.org/x/time/rate.
//
// InFlightRegistry tracks running consultations so the server can cancel
// their upstream calls on shutdown.
package transport
