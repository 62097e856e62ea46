package api

// SpeakerTurn is one message attributed to a named persona in the board
// conversation. A consultation result is an ordered slice of turns.
type SpeakerTurn struct {
	Agent   string `json:"agent"`
	Emoji   string `json:"emoji"`
	Message string `json:"message"`
}

// Sentinel values used when a consultation cannot produce a real
// conversation.
const (
	SentinelAgent = "System"
	SentinelEmoji = "⚠️"

	// UnparsableOutputMessage is used when the model answered but no
	// conversation could be recovered from its text.
	UnparsableOutputMessage = "Model returned unparsable output."

	// RequestFailedMessage is used when the upstream call itself failed.
	RequestFailedMessage = "Request failed: check server logs."
)

// SentinelTurn returns a one-element result attributed to the System agent.
func SentinelTurn(message string) []SpeakerTurn {
	return []SpeakerTurn{{
		Agent:   SentinelAgent,
		Emoji:   SentinelEmoji,
		Message: message,
	}}
}

// ValidationFailedTurn renders a request validation failure as a sentinel
// result for callers that always display turns.
func ValidationFailedTurn(err error) []SpeakerTurn {
	return SentinelTurn("Validation error: " + err.Error())
}

// IsSentinel reports whether turns is a single System placeholder.
func IsSentinel(turns []SpeakerTurn) bool {
	return len(turns) == 1 && turns[0].Agent == SentinelAgent && turns[0].Emoji == SentinelEmoji
}
