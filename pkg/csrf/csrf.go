// Package csrf issues and verifies short-lived form nonces. A nonce is an
// HS256-signed JWT keyed by the application secret; the HTML form embeds
// one and the submit handler rejects posts whose nonce is missing,
// tampered with, or expired.
package csrf

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "warroom"
	audience = "warroom-form"
)

// ErrInvalidNonce is returned by Verify for any nonce that must be rejected.
var ErrInvalidNonce = errors.New("invalid form nonce")

// Config holds nonce settings.
type Config struct {
	// Secret signs nonces. Required.
	Secret []byte

	// TTL is how long a nonce stays valid. Default: 1 hour.
	TTL time.Duration

	// Now overrides the clock (useful for testing). Default: time.Now.
	Now func() time.Time
}

// Nonces issues and verifies form nonces.
type Nonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Nonces with the given configuration.
func New(cfg Config) (*Nonces, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("csrf: secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Nonces{secret: cfg.Secret, ttl: cfg.TTL, now: cfg.Now}, nil
}

// Issue returns a fresh nonce.
func (n *Nonces) Issue() (string, error) {
	now := n.now()
	claims := jwtlib.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwtlib.ClaimStrings{audience},
		IssuedAt:  jwtlib.NewNumericDate(now),
		NotBefore: jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(n.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(n.secret)
	if err != nil {
		return "", fmt.Errorf("signing nonce: %w", err)
	}
	return signed, nil
}

// Verify checks a nonce's signature, issuer, audience, and expiry.
func (n *Nonces) Verify(nonce string) error {
	if nonce == "" {
		return fmt.Errorf("%w: missing", ErrInvalidNonce)
	}
	_, err := jwtlib.ParseWithClaims(nonce, &jwtlib.RegisteredClaims{}, func(*jwtlib.Token) (interface{}, error) {
		return n.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithAudience(audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(n.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNonce, err)
	}
	return nil
}

// GenerateSecret returns a random hex secret for deployments that
// configure none. Nonces signed with it do not survive a restart.
func GenerateSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
