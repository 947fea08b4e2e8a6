package tokenhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex-encoded sha256 digest of a bearer token.
// Sessions store only this digest, never the plaintext token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
