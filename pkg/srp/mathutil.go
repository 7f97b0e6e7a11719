package srp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// ephemeralBytes is how much raw entropy feeds each ephemeral exponent.
// 1024 bits, reduced mod N.
const ephemeralBytes = 128

// intToHex renders a big integer as minimal lowercase hex, no leading zeros.
func intToHex(n *big.Int) string {
	return fmt.Sprintf("%x", n)
}

// hexToInt parses a hex string into a big integer.
func hexToInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return new(big.Int)
	}
	return n
}

// hashHex returns the SHA-256 digest of raw bytes as a 64-character hex
// string, left-padded with zeros.
func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	s := hex.EncodeToString(sum[:])
	for len(s) < 64 {
		s = "0" + s
	}
	return s
}

// hexHash hashes the byte decoding of an even-length hex string.
// The input must already be padded (see padHex); an odd-length string here
// is a programming error upstream.
func hexHash(hexStr string) string {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		// Reachable only with an unpadded or corrupt hex string.
		panic("srp: hexHash on invalid hex input: " + err.Error())
	}
	return hashHex(raw)
}

// padHex normalises a hex string for hashing: always an even number of
// digits, and a leading zero byte whenever the most significant byte has its
// high bit set. Without the extra byte the server would read the value as
// negative and every derived hash would disagree.
func padHex(hexStr string) string {
	if len(hexStr)%2 == 1 {
		return "0" + hexStr
	}
	switch hexStr[0] {
	case '8', '9', 'a', 'b', 'c', 'd', 'e', 'f', 'A', 'B', 'C', 'D', 'E', 'F':
		return "00" + hexStr
	}
	return hexStr
}

// padIntHex is padHex over a big integer.
func padIntHex(n *big.Int) string {
	return padHex(intToHex(n))
}

// padBytes returns the padded big-endian byte encoding of n.
func padBytes(n *big.Int) []byte {
	raw, err := hex.DecodeString(padIntHex(n))
	if err != nil {
		panic("srp: padBytes produced invalid hex")
	}
	return raw
}

// modExp computes base^exp mod m without mutating its inputs.
func modExp(base, exp, m *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, m)
}

// randomExponent draws a cryptographically random value in [1, n-1].
func randomExponent(n *big.Int) (*big.Int, error) {
	for {
		raw := make([]byte, ephemeralBytes)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("srp: read random: %w", err)
		}

		v := new(big.Int).SetBytes(raw)
		v.Mod(v, n)
		if v.Sign() != 0 {
			return v, nil
		}
		// Astronomically unlikely, draw again.
	}
}

// calculateU derives the scrambling parameter u = H(PAD(A) || PAD(B)).
func calculateU(a, b *big.Int) *big.Int {
	return hexToInt(hexHash(padIntHex(a) + padIntHex(b)))
}
