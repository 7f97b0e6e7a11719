package poolauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSet is the credential set minted by a successful authenticate or
// refresh. The Client owns the live copy; accessors hand out value copies.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// tokenExpiry decodes the exp claim out of a compact token without
// verifying the signature. Used for the local expiry check only; anything
// security-relevant goes through the verifier.
func tokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("poolauth: decode token expiry: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("poolauth: token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
