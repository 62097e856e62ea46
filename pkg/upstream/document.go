package upstream

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is wrapped by a TransportError when a 2xx body does not
// decode as JSON.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// Document is a decoded upstream response body. Every node carries its
// type tag (Null, False, True, Number, String, JSON) so callers can walk
// arbitrary nesting without guessing.
type Document struct {
	raw  []byte
	root gjson.Result
}

// NewDocument validates raw as JSON and wraps it.
func NewDocument(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return &Document{raw: raw, root: gjson.ParseBytes(raw)}, nil
}

// Raw returns the body bytes as received.
func (d *Document) Raw() []byte {
	return d.raw
}

// Root returns the top-level node.
func (d *Document) Root() gjson.Result {
	return d.root
}

// Get looks up a gjson path such as "candidates.0.content.parts.0.text".
func (d *Document) Get(path string) gjson.Result {
	return d.root.Get(path)
}
