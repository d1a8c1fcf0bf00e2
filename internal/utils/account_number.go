package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateAccountNumber produces a cryptographically random numeric account
// number of the given length. The first digit is never zero so the number
// survives round-trips through systems that trim leading zeros.
func GenerateAccountNumber(length int) (string, error) {
	if length < 2 {
		return "", fmt.Errorf("account number length must be at least 2")
	}
	digits := make([]byte, length)
	for i := range digits {
		max := big.NewInt(10)
		if i == 0 {
			max = big.NewInt(9)
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		d := byte(n.Int64())
		if i == 0 {
			d++ // 1-9
		}
		digits[i] = '0' + d
	}
	return string(digits), nil
}
