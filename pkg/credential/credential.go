// Package credential decides how a caller-supplied upstream credential is
// presented: as a "key" query parameter or as an Authorization bearer
// header. The decision is a prefix heuristic; OAuth access tokens issued
// by Google start with "ya29." and legacy refresh-style tokens with "1/".
// The heuristic is fragile: an API key that happens to start with one of
// the prefixes is sent as a bearer token.
package credential

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Kind is the presentation chosen for a credential.
type Kind string

const (
	KindAPIKey Kind = "api_key"
	KindBearer Kind = "bearer"
)

// bearerScheme is recognised verbatim: the credential already is a header value.
const bearerScheme = "Bearer "

// DefaultBearerPrefixes are the token shapes treated as bearer tokens.
var DefaultBearerPrefixes = []string{bearerScheme, "ya29.", "1/"}

// Rules holds the prefix list used by Classify.
type Rules struct {
	BearerPrefixes []string
}

// DefaultRules returns Rules with DefaultBearerPrefixes.
func DefaultRules() Rules {
	return Rules{BearerPrefixes: append([]string(nil), DefaultBearerPrefixes...)}
}

// WithPrefixes returns a copy of r with extra bearer prefixes appended.
// Empty and duplicate prefixes are skipped.
func (r Rules) WithPrefixes(extra ...string) Rules {
	out := Rules{BearerPrefixes: append([]string(nil), r.BearerPrefixes...)}
	for _, p := range extra {
		if p == "" || containsString(out.BearerPrefixes, p) {
			continue
		}
		out.BearerPrefixes = append(out.BearerPrefixes, p)
	}
	return out
}

// Credential is a classified credential.
type Credential struct {
	Kind Kind

	// Value is the query parameter value for KindAPIKey and the full
	// Authorization header value for KindBearer.
	Value string
}

// Classify inspects cred against the bearer prefixes.
func (r Rules) Classify(cred string) Credential {
	if strings.HasPrefix(cred, bearerScheme) {
		return Credential{Kind: KindBearer, Value: cred}
	}
	for _, p := range r.BearerPrefixes {
		if p != bearerScheme && strings.HasPrefix(cred, p) {
			return Credential{Kind: KindBearer, Value: bearerScheme + cred}
		}
	}
	return Credential{Kind: KindAPIKey, Value: cred}
}

// Classify classifies cred with DefaultRules.
func Classify(cred string) Credential {
	return DefaultRules().Classify(cred)
}

// Apply returns rawURL with the credential placed on it and sets headers
// accordingly. Bearer credentials set Authorization and drop any "key"
// query parameter; API keys replace the "key" parameter and leave
// Authorization unset.
func (c Credential) Apply(rawURL string, headers http.Header) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing upstream url: %w", err)
	}

	q := u.Query()
	switch c.Kind {
	case KindBearer:
		q.Del("key")
		headers.Set("Authorization", c.Value)
	default:
		q.Set("key", c.Value)
		headers.Del("Authorization")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
