package code

import (
	"crypto/rand"
	"math/big"
)

const digits = "0123456789"

// NewNumeric generates a random numeric verification code of length n.
func NewNumeric(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		b[i] = digits[idx.Int64()]
	}
	return string(b), nil
}
