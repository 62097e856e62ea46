package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/observability"
	"github.com/rhuss/warroom/pkg/upstream"
)

// ErrEmptyConversation is returned by DecodeTurns for an empty array.
var ErrEmptyConversation = errors.New("recovered array is empty")

// DecodeTurns validates a recovered JSON array and converts it to turns.
// Each element must be an object with non-empty string "agent" and
// "message" fields; "emoji" is optional but must be a string when present.
func DecodeTurns(raw []byte) ([]api.SpeakerTurn, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decoding array: %w", err)
	}
	if len(elems) == 0 {
		return nil, ErrEmptyConversation
	}

	turns := make([]api.SpeakerTurn, 0, len(elems))
	for i, elem := range elems {
		obj := gjson.ParseBytes(elem)
		if !obj.IsObject() {
			return nil, fmt.Errorf("element %d: not an object", i)
		}

		agent, err := requiredString(obj, "agent")
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		message, err := requiredString(obj, "message")
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		emoji := ""
		if e := obj.Get("emoji"); e.Exists() && e.Type != gjson.Null {
			if e.Type != gjson.String {
				return nil, fmt.Errorf("element %d: emoji is not a string", i)
			}
			emoji = strings.TrimSpace(e.Str)
		}

		turns = append(turns, api.SpeakerTurn{Agent: agent, Emoji: emoji, Message: message})
	}
	return turns, nil
}

func requiredString(obj gjson.Result, field string) (string, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return "", fmt.Errorf("missing %s", field)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%s is not a string", field)
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return "", fmt.Errorf("%s is empty", field)
	}
	return s, nil
}

// Turns extracts the speaker turns from doc. It never fails: when no
// valid conversation can be recovered it logs a warning and returns the
// single unparsable-output sentinel turn.
func Turns(doc *upstream.Document) []api.SpeakerTurn {
	return TurnsFromText(LocateText(doc))
}

// TurnsFromText runs recovery and validation on already located text.
func TurnsFromText(text string) []api.SpeakerTurn {
	res := Recover(text)
	if !res.OK {
		observability.ExtractionTotal.WithLabelValues(StageFailed).Inc()
		slog.Warn("failed to parse conversation from model output",
			"reason", res.Reason, "attempts", res.Attempts)
		debug.Log("extract", "unparsable text", "text", debug.Truncate(text, 500))
		return api.SentinelTurn(api.UnparsableOutputMessage)
	}

	turns, err := DecodeTurns(res.Value)
	if err != nil {
		observability.ExtractionTotal.WithLabelValues(StageInvalid).Inc()
		slog.Warn("model output failed turn validation", "stage", res.Stage, "error", err)
		return api.SentinelTurn(api.UnparsableOutputMessage)
	}

	observability.ExtractionTotal.WithLabelValues(res.Stage).Inc()
	debug.Log("extract", "recovered turns", "stage", res.Stage, "count", len(turns))
	return turns
}
