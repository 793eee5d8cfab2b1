// Package token references bearer tokens without revealing them.
package token

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the length of a fingerprint.
const FingerprintSize = blake2b.Size256

// Fingerprint is the BLAKE2b-256 digest of a token.
// It is used wherever a token must be stored or logged.
type Fingerprint [FingerprintSize]byte

// Hash computes the fingerprint of a token.
func Hash(tok string) Fingerprint {
	return blake2b.Sum256([]byte(tok))
}

// String returns the fingerprint in lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 bytes in hex, for logging.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:8])
}

// ParseFingerprint decodes a hex fingerprint.
func ParseFingerprint(s string) (f Fingerprint, err error) {
	if len(s) != 2*FingerprintSize {
		return f, fmt.Errorf("invalid fingerprint length: %d", len(s))
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return f, fmt.Errorf("invalid fingerprint: %w", err)
	}
	return f, nil
}

// Field returns a log field holding the short fingerprint of a token.
func Field(tok string) zap.Field {
	return zap.String("token", Hash(tok).Short())
}
