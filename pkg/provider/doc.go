// Package provider defines the interface between the engine and a
// generative model backend. An adapter (gemini) builds the backend's
// URL, headers and body from a ConsultRequest and returns the raw
// response document; text extraction stays with the engine.
package provider
