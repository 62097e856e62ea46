package gemini

// generateContentRequest is the request body for models/{model}:generateContent.
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func newTextRequest(text string) generateContentRequest {
	return generateContentRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
	}
}
