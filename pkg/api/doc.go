// Package api defines the core value types for the warroom front end.
//
// The package is shared by every layer: the transport builds a
// [ConsultRequest] from user input, the engine turns it into an ordered
// list of [SpeakerTurn] values, and errors that reach a caller are
// reported as [APIError].
//
// The package has no external dependencies and performs no I/O.
//
// Core types:
//   - [ConsultRequest]: validated, immutable input for one consultation
//   - [SpeakerTurn]: one message attributed to a persona in the board conversation
//   - [APIError]: structured error with type, param, and message
//
// A consultation never yields an empty result. Failures degrade to a
// single sentinel turn (see [SentinelTurn]) so that callers handle one
// uniform result shape.
package api
