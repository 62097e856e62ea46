// Package gemini implements the Provider interface for the Google Gemini
// generateContent API. It builds the model URL, places the caller's
// credential as a key parameter or bearer header, wraps the prompt in the
// selected persona preamble, and executes the call through the retrying
// upstream client.
package gemini
