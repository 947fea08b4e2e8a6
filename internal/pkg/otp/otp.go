package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const digits = "0123456789"

// Generate produces a numeric one-time code of exactly length digits.
// Each digit is drawn independently from crypto/rand, so codes are not
// predictable from previous outputs.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp length must be positive, got %d", length)
	}
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		b[i] = digits[n.Int64()]
	}
	return string(b), nil
}
