package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is a hex-encoded SHA-256 digest. Rule-set fingerprints use it to
// spot drift between rule sources without diffing rule by rule.
type Hash string

// NewHash digests data into a Hash.
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the full hex digest.
func (h Hash) String() string {
	return string(h)
}

// Short returns a truncated digest for display.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty reports whether the hash is unset.
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals reports whether two hashes match.
func (h Hash) Equals(other Hash) bool {
	return h == other
}
