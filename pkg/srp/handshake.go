// Package srp implements the client side of the SRP password-verifier
// handshake used by hosted identity pools, plus the session-key derivation
// and proof computation that go with it.
//
// A Handshake is single use. Every attempt draws a fresh ephemeral keypair;
// a failed attempt is discarded and the caller constructs a new Handshake
// rather than retrying with the same public value.
package srp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/wombatcreek/poolauth/pkg/idx"
)

var (
	// ErrScramblingZero reports the degenerate u == 0 case. The attempt is
	// dead: restarting with the same ephemeral keypair is not allowed.
	ErrScramblingZero = errors.New("srp: scrambling parameter u is zero")

	// ErrMalformedChallenge reports challenge parameters missing a required
	// field or carrying values that don't decode.
	ErrMalformedChallenge = errors.New("srp: malformed challenge parameters")

	// ErrBadState reports a handshake method called out of sequence or on a
	// finished handshake.
	ErrBadState = errors.New("srp: handshake used out of sequence")
)

// Wire names for auth parameters and challenge fields.
const (
	ParamUsername   = "USERNAME"
	ParamSRPA       = "SRP_A"
	ParamSecretHash = "SECRET_HASH"

	ChallengeUserIDForSRP = "USER_ID_FOR_SRP"
	ChallengeSalt         = "SALT"
	ChallengeSRPB         = "SRP_B"
	ChallengeSecretBlock  = "SECRET_BLOCK"

	ResponseTimestamp   = "TIMESTAMP"
	ResponseSecretBlock = "PASSWORD_CLAIM_SECRET_BLOCK"
	ResponseSignature   = "PASSWORD_CLAIM_SIGNATURE"
)

// State tracks where a handshake attempt is up to.
type State int

const (
	StateStart State = iota
	StateACompiled
	StateChallengeReceived
	StateProofComputed
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateACompiled:
		return "a_compiled"
	case StateChallengeReceived:
		return "challenge_received"
	case StateProofComputed:
		return "proof_computed"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handshake holds the state of one SRP authentication attempt.
// Not safe for concurrent use; the lifecycle manager serialises attempts.
type Handshake struct {
	id idx.ID

	group        *Group
	poolName     string
	clientID     string
	clientSecret string
	username     string
	password     string

	state  State
	smallA *big.Int
	largeA *big.Int
}

// NewHandshake builds a fresh attempt: it loads the pool parameters and
// generates a new ephemeral keypair. userPoolID is the full pool id
// including the region prefix (e.g. "ap-southeast-2_AbCdEfGh").
// clientSecret may be empty when the app client has no secret configured.
func NewHandshake(userPoolID, clientID, clientSecret, username, password string) (*Handshake, error) {
	switch {
	case username == "":
		return nil, errors.New("srp: username is required")
	case password == "":
		return nil, errors.New("srp: password is required")
	case clientID == "":
		return nil, errors.New("srp: client id is required")
	}

	poolName, err := PoolName(userPoolID)
	if err != nil {
		return nil, err
	}

	group := DefaultGroup()

	smallA, err := randomExponent(group.N)
	if err != nil {
		return nil, err
	}
	largeA := modExp(group.G, smallA, group.N)
	if new(big.Int).Mod(largeA, group.N).Sign() == 0 {
		return nil, errors.New("srp: safety check failed, A mod N is zero")
	}

	return &Handshake{
		id:           idx.New(),
		group:        group,
		poolName:     poolName,
		clientID:     clientID,
		clientSecret: clientSecret,
		username:     username,
		password:     password,
		state:        StateStart,
		smallA:       smallA,
		largeA:       largeA,
	}, nil
}

// PoolName strips the region prefix off a user pool id; the remainder is
// the pool name fed into the password hash and the proof message.
func PoolName(userPoolID string) (string, error) {
	_, name, ok := strings.Cut(userPoolID, "_")
	if !ok || name == "" {
		return "", fmt.Errorf("srp: malformed user pool id %q", userPoolID)
	}
	return name, nil
}

// ID returns the attempt's ULID, used to correlate log lines.
func (h *Handshake) ID() idx.ID { return h.id }

// State returns the attempt's current state.
func (h *Handshake) State() State { return h.state }

// A returns the ephemeral public value.
func (h *Handshake) A() *big.Int { return new(big.Int).Set(h.largeA) }

// AuthParams produces the parameters for the USER_SRP_AUTH initiation
// request and moves the handshake from Start to ACompiled.
func (h *Handshake) AuthParams() (map[string]string, error) {
	if h.state != StateStart {
		return nil, fmt.Errorf("%w: auth params requested in state %s", ErrBadState, h.state)
	}
	h.state = StateACompiled

	params := map[string]string{
		ParamUsername: h.username,
		ParamSRPA:     intToHex(h.largeA),
	}
	if h.clientSecret != "" {
		params[ParamSecretHash] = SecretHash(h.username, h.clientID, h.clientSecret)
	}
	return params, nil
}

// ChallengeResponses consumes the server's PASSWORD_VERIFIER challenge
// parameters, derives the session key, and produces the proof responses.
// now must already be the current instant; it is rendered in the fixed
// timestamp format and bound into the proof.
func (h *Handshake) ChallengeResponses(challenge map[string]string, now time.Time) (map[string]string, error) {
	if h.state != StateACompiled {
		return nil, fmt.Errorf("%w: challenge processed in state %s", ErrBadState, h.state)
	}

	userID := challenge[ChallengeUserIDForSRP]
	saltHex := challenge[ChallengeSalt]
	srpBHex := challenge[ChallengeSRPB]
	secretBlockB64 := challenge[ChallengeSecretBlock]
	if userID == "" || saltHex == "" || srpBHex == "" || secretBlockB64 == "" {
		h.state = StateFailed
		return nil, fmt.Errorf("%w: missing required field", ErrMalformedChallenge)
	}

	serverB, ok := new(big.Int).SetString(srpBHex, 16)
	if !ok {
		h.state = StateFailed
		return nil, fmt.Errorf("%w: SRP_B is not hex", ErrMalformedChallenge)
	}
	secretBlock, err := base64.StdEncoding.DecodeString(secretBlockB64)
	if err != nil {
		h.state = StateFailed
		return nil, fmt.Errorf("%w: secret block is not base64", ErrMalformedChallenge)
	}
	h.state = StateChallengeReceived

	key, err := h.sessionKey(userID, saltHex, serverB)
	if err != nil {
		h.state = StateFailed
		return nil, err
	}

	timestamp := FormatTimestamp(now)

	// M1 = HMAC(key, poolName || userID || secretBlock || timestamp)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(h.poolName))
	mac.Write([]byte(userID))
	mac.Write(secretBlock)
	mac.Write([]byte(timestamp))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	h.state = StateProofComputed

	responses := map[string]string{
		ResponseTimestamp:   timestamp,
		ParamUsername:       userID,
		ResponseSecretBlock: secretBlockB64,
		ResponseSignature:   signature,
	}
	if h.clientSecret != "" {
		// The secret hash is always over the login alias, not the
		// pool-internal SRP user id.
		responses[ParamSecretHash] = SecretHash(h.username, h.clientID, h.clientSecret)
	}
	return responses, nil
}

// Complete marks the attempt successful. Terminal.
func (h *Handshake) Complete() { h.state = StateComplete }

// Fail marks the attempt failed. Terminal.
func (h *Handshake) Fail() { h.state = StateFailed }

// sessionKey derives the 16-byte proof key from the challenge values.
func (h *Handshake) sessionKey(userID, saltHex string, serverB *big.Int) ([]byte, error) {
	u := calculateU(h.largeA, serverB)
	if u.Sign() == 0 {
		return nil, ErrScramblingZero
	}

	// x = H(PAD(salt) || H(poolName || userID || ":" || password))
	credentialHash := hashHex([]byte(h.poolName + userID + ":" + h.password))
	x := hexToInt(hexHash(padHex(saltHex) + credentialHash))

	// S = (B - k*g^x) ^ (a + u*x) mod N
	gx := modExp(h.group.G, x, h.group.N)
	base := new(big.Int).Sub(serverB, new(big.Int).Mul(h.group.K, gx))
	base.Mod(base, h.group.N)

	exp := new(big.Int).Add(h.smallA, new(big.Int).Mul(u, x))
	s := modExp(base, exp, h.group.N)

	return deriveSessionKey(s, u)
}

// SecretHash computes the keyed hash an app client with a configured secret
// must attach to initiation and challenge-response calls:
// base64(HMAC-SHA256(secret, username || clientID)).
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username))
	mac.Write([]byte(clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
