package poolauth

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterValidation reports malformed or missing caller input,
	// detected before any network call.
	ErrParameterValidation = errors.New("poolauth: invalid parameter")

	// ErrNotAuthenticated reports an operation needing tokens the client
	// doesn't hold.
	ErrNotAuthenticated = errors.New("poolauth: not authenticated")
)

// TokenVerificationError reports a token the provider handed back failing
// signature or claim checks. The token set is discarded; the caller must
// re-authenticate.
type TokenVerificationError struct {
	Use string // "id" or "access"
	Err error
}

func (e *TokenVerificationError) Error() string {
	return fmt.Sprintf("poolauth: %s token failed verification: %v", e.Use, e.Err)
}

func (e *TokenVerificationError) Unwrap() error { return e.Err }

// ChallengeError surfaces a non-SRP challenge verbatim. The client never
// interprets these itself; the caller answers via RespondToChallenge (or
// the TOTP helper for software-token challenges).
type ChallengeError struct {
	Name       string
	Parameters map[string]string
	Session    string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("poolauth: provider requires further challenge %s", e.Name)
}
