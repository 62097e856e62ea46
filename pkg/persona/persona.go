// Package persona holds the board preambles that are prepended to every
// user pitch. The preamble instructs the model to answer with a raw JSON
// array of {"agent","emoji","message"} objects.
package persona

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Preset names.
const (
	Executive = "executive"
	Humanized = "humanized"

	// Default is used when a request names no preset.
	Default = Executive
)

// ErrUnknownPreset is returned for a preset name that is not registered.
var ErrUnknownPreset = errors.New("unknown persona preset")

// Preset is a named board preamble.
type Preset struct {
	Name     string
	Agents   []string
	Preamble string
}

const executivePreamble = `
# SYSTEM SETTING: THE EXECUTIVE BOARD (DPA-E)
Return ONLY a raw JSON array: [{"agent":"Name","emoji":"Emoji","message":"Text"}]
1. 👑 Daraima: Lead. 2. ⚖️ Justice: CFO/Cynic. 3. 💻 Moses: CTO/Pragmatist.
Rules: No robotic headers. Agents MUST argue. End with a Scorecard.
`

const humanizedPreamble = `
# SYSTEM SETTING: THE EXECUTIVE BOARD (DPA-I HUMANIZED)

## 1. THE VIBE
You are a Board of Executives with 10+ years of elite experience. Use conversational English, professional idioms, and sharp expertise.
NO ROBOTIC HEADERS. NO 'Phase 1'. Talk like you are in a high-stakes WhatsApp/Slack thread.

## 2. THE CAST (DARAIMA'S PARALLEL AGENTS)
- 👑 Daraima (Lead): CEO. Strategic facilitator. Opens and pivots the meeting to execution.
- ⚖️ Justice (CFO): ROI-obsessed. Thinks in EBITDA, CAC, LTV. Interrupts expensive ideas.
- 💻 Moses (CTO): Pragmatist. Hates hype. Speaks in Tech Debt, SQL, Python, and Latency.
- 🇩🇪 Clovet (Architect): Scalability master. 10-year horizons. Precision-engineered systems.
- 🎯 Emma (Product/Growth): User psychology expert. UX is everything. Calls devs 'robots'.

## 3. THE HIDDEN FLOW (DPA-I PROTOCOL)
- THE ROAST: Dissect the idea with elite industry knowledge.
- THE FRICTION: Agents MUST argue. Justice vs Emma (Cost vs Magic). Moses vs Clovet (Stable vs Scale).
- INTERACTIVE: If the user addresses one person, they lead, but others provide friction.
- THE VERDICT: Daraima provides the 'Scorecard on a Napkin' Table.
- THE WAY FORWARD (MANDATORY): Daraima MUST conclude by asking what the user wants next, suggesting 3 specific action plans (e.g., Technical Roadmap, Financial Forecast, or UX Wireframe).

OUTPUT: Return ONLY a raw JSON array: [{"agent":"Name","emoji":"Emoji","message":"Text"}]`

var presets = map[string]Preset{
	Executive: {
		Name:     Executive,
		Agents:   []string{"Daraima", "Justice", "Moses"},
		Preamble: executivePreamble,
	},
	Humanized: {
		Name:     Humanized,
		Agents:   []string{"Daraima", "Justice", "Moses", "Clovet", "Emma"},
		Preamble: humanizedPreamble,
	},
}

// Lookup returns the preset registered under name. An empty name selects Default.
func Lookup(name string) (Preset, error) {
	if name == "" {
		name = Default
	}
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names lists the registered presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose renders the text sent upstream for prompt.
func (p Preset) Compose(prompt string) string {
	return p.Preamble + "\n\nUSER PITCH: " + prompt
}

// Compose looks up the named preset and renders prompt with it.
func Compose(name, prompt string) (string, error) {
	p, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return p.Compose(prompt), nil
}
