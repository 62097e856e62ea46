// Command demo shows how the extractor recovers a board conversation from
// the kinds of text a model actually returns. It runs offline.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/extract"
	"github.com/rhuss/warroom/pkg/persona"
	"github.com/rhuss/warroom/pkg/upstream"
)

const board = `[{"agent":"Daraima","emoji":"👑","message":"Bold. Justice?"},{"agent":"Justice","emoji":"⚖️","message":"Margins are thin."}]`

var samples = []struct {
	name string
	text string
}{
	{"clean", board},
	{"fenced", "```json\n" + board + "\n```"},
	{"commentary", "Sure! Here is the meeting:\n" + board + "\nHope this helps."},
	{"refusal", "I cannot simulate a board meeting."},
	{"wrong shape", `[{"agent":"Daraima"}]`},
}

func main() {
	fmt.Println("=== war room extractor demo ===")
	fmt.Println()

	preset, _ := persona.Lookup(persona.Humanized)
	fmt.Printf("[1] %q preset, %d agents: %v\n", preset.Name, len(preset.Agents), preset.Agents)

	for i, s := range samples {
		res := extract.Recover(s.text)
		turns := extract.TurnsFromText(s.text)
		fmt.Printf("\n[%d] %s: stage=%s ok=%v sentinel=%v\n", i+2, s.name, res.Stage, res.OK, api.IsSentinel(turns))
		out, _ := json.MarshalIndent(turns, "    ", "  ")
		fmt.Printf("    %s\n", out)
	}

	// A reply whose text sits outside candidates[0] is still found.
	doc, err := upstream.NewDocument([]byte(`{"result":{"output":[{"value":` + jsonString(board) + `}]}}`))
	if err != nil {
		fmt.Printf("document: %v\n", err)
		return
	}
	turns := extract.Turns(doc)
	fmt.Printf("\n[%d] off-path text: %d turns, first agent %s\n", len(samples)+2, len(turns), turns[0].Agent)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
