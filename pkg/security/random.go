package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// UpperAlphanumeric is the charset used for customer-facing codes.
const UpperAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString draws length characters uniformly from charset using crypto/rand.
func RandomString(length int, charset string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if charset == "" {
		return "", fmt.Errorf("charset cannot be empty")
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
