package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ShortID returns the first 16 hex characters of the SHA-256 digest of s.
// Used as a stable source identifier derived from the source URL.
func ShortID(s string) string {
	return Sum([]byte(s))[:16]
}
