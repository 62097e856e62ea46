// Package engine implements the consultation pipeline. The Engine struct
// implements transport.Consulter: it fills request defaults, validates the
// request, calls the provider backend, and extracts speaker turns from the
// response. Every failure is folded into a sentinel turn so callers always
// receive a non-empty conversation.
package engine
