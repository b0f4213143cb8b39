// Package checksum fingerprints note files so unchanged exports can be
// recognised without parsing them again.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data still has the digest sum.
func Matches(data []byte, sum string) bool {
	return subtle.ConstantTimeCompare([]byte(Sum(data)), []byte(sum)) == 1
}
