package hashing

import (
	"crypto/sha512"
	"encoding/hex"
)

// Calculate returns the hex encoded SHA-512 of data. Every stored upload and
// signed artifact gets one, so a later mismatch can be told apart from a
// missing file.
func Calculate(data []byte) string {
	h := sha512.Sum512(data)
	return hex.EncodeToString(h[:])
}

// Verify reports whether data still matches a recorded digest. An empty
// digest means none was recorded and is treated as a match.
func Verify(data []byte, digest string) bool {
	if digest == "" {
		return true
	}
	return Calculate(data) == digest
}
