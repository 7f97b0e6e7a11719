package srp

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// derivedKeyInfo is the fixed HKDF protocol label. The server derives its
// copy of the session key with the same label, so this can never change.
const derivedKeyInfo = "Caldera Derived Key"

// derivedKeyLen is the session key length in bytes.
const derivedKeyLen = 16

// deriveSessionKey runs HKDF-SHA256 over the premaster secret S using the
// scrambling parameter u as salt. Both inputs use the padded big-endian
// encoding so the bytes match what the server feeds its own HKDF.
func deriveSessionKey(s, u *big.Int) ([]byte, error) {
	r := hkdf.New(sha256.New, padBytes(s), padBytes(u), []byte(derivedKeyInfo))

	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("srp: derive session key: %w", err)
	}
	return key, nil
}
