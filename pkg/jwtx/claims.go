package jwtx

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token-use claim values. Identity tokens and access tokens are signed the
// same way but carry their audience differently, so the verifier needs to
// know which one it's looking at.
const (
	UseID     = "id"
	UseAccess = "access"
)

// Claims are the pool-issued token claims this client cares about.
type Claims struct {
	jwt.RegisteredClaims

	// TokenUse distinguishes an identity token from an access token.
	TokenUse string `json:"token_use,omitempty"`

	// ClientID is the app client the token was minted for. Only present on
	// access tokens; identity tokens carry the client id in "aud" instead.
	ClientID string `json:"client_id,omitempty"`

	// Username is the pool-internal username, present on access tokens.
	Username string `json:"username,omitempty"`
}

// ValidateIssuer checks the issuer claim against the expected value.
// An empty expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return fmt.Errorf("%w: got %q", ErrIssuer, c.Issuer)
	}
	return nil
}

// ValidateExpiry ensures the token's exp claim is strictly in the future.
// No leeway: a token expiring this instant is expired.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp claim", ErrExpired)
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}

// ValidateClient checks the token was minted for the given app client,
// reading whichever claim the token's own declared use carries: "aud" on
// identity tokens, "client_id" on access tokens.
func (c *Claims) ValidateClient(clientID string) error {
	switch c.TokenUse {
	case UseID:
		if !slices.Contains(c.Audience, clientID) {
			return fmt.Errorf("%w: aud %v", ErrAudience, []string(c.Audience))
		}
	case UseAccess:
		if c.ClientID != clientID {
			return fmt.Errorf("%w: client_id %q", ErrAudience, c.ClientID)
		}
	default:
		return fmt.Errorf("%w: unrecognised token_use %q", ErrTokenUse, c.TokenUse)
	}
	return nil
}

// ValidateUse checks the token-use claim matches what the caller expected.
func (c *Claims) ValidateUse(expected string) error {
	if c.TokenUse != expected {
		return fmt.Errorf("%w: expected %q, token claims %q", ErrTokenUse, expected, c.TokenUse)
	}
	return nil
}
