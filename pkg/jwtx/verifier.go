package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrSignature  = errors.New("jwtx: signature verification failed")

	ErrIssuer   = errors.New("jwtx: issuer mismatch")
	ErrAudience = errors.New("jwtx: token not minted for this client")
	ErrExpired  = errors.New("jwtx: token expired")
	ErrTokenUse = errors.New("jwtx: token-use mismatch")
)

// Verifier validates a pool-issued token of the declared use and gives back
// its claims if it's legit. Injectable so the lifecycle manager can be
// tested without a key-set endpoint.
type Verifier interface {
	Verify(ctx context.Context, token, expectedUse string) (*Claims, error)
}

// KeySetVerifier verifies RS256 tokens against a RemoteKeySet.
type KeySetVerifier struct {
	keys     *RemoteKeySet
	clientID string
	now      func() time.Time
}

// NewVerifier builds a verifier bound to one key set and app client id.
func NewVerifier(keys *RemoteKeySet, clientID string) *KeySetVerifier {
	return &KeySetVerifier{keys: keys, clientID: clientID, now: time.Now}
}

// Verify checks the token's signature and claims. Key lookup happens against
// the cache first; on a miss the key set is refetched once and looked up
// again, then we give up. The cache is the only thing Verify mutates.
func (v *KeySetVerifier) Verify(ctx context.Context, tokenStr, expectedUse string) (*Claims, error) {
	kid, err := peekKID(tokenStr)
	if err != nil {
		return nil, err
	}

	key, ok := v.keys.Get(kid)
	if !ok {
		// Unknown kid usually means the pool rotated its keys.
		if err := v.keys.Refresh(ctx); err != nil {
			return nil, err
		}
		key, ok = v.keys.Get(kid)
		if !ok {
			return nil, fmt.Errorf("%w: %q not in key set after refresh", ErrUnknownKID, kid)
		}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(), // claim checks below, so failures name the claim
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.keys.Issuer()); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(v.now().UTC()); err != nil {
		return nil, err
	}
	if err := claims.ValidateClient(v.clientID); err != nil {
		return nil, err
	}
	if err := claims.ValidateUse(expectedUse); err != nil {
		return nil, err
	}

	return claims, nil
}

// peekKID reads the key id out of the token header without verifying
// anything. The signature check happens afterwards with the located key.
func peekKID(tokenStr string) (string, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return "", fmt.Errorf("%w: missing kid header", ErrMalformed)
	}
	return kid, nil
}
