package extract

import (
	"github.com/tidwall/gjson"

	"github.com/rhuss/warroom/pkg/upstream"
)

// TextPath is where generateContent places the generated text.
const TextPath = "candidates.0.content.parts.0.text"

// LocateText returns the generated text of doc. When TextPath is missing
// or is not a string, it falls back to the first non-empty string found
// by a depth-first walk in document order. It returns "" when the
// document holds no string at all.
func LocateText(doc *upstream.Document) string {
	if doc == nil {
		return ""
	}
	if r := doc.Get(TextPath); r.Type == gjson.String {
		return r.Str
	}
	return FirstString(doc.Root())
}

// FirstString walks r depth-first and returns the first non-empty string leaf.
func FirstString(r gjson.Result) string {
	switch {
	case r.Type == gjson.String:
		return r.Str
	case r.IsObject() || r.IsArray():
		found := ""
		r.ForEach(func(_, value gjson.Result) bool {
			found = FirstString(value)
			return found == ""
		})
		return found
	default:
		return ""
	}
}
