package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time numeric verification codes.
type Generator interface {
	RandomCode(length int) (string, error)
}

// RandomGenerator draws codes uniformly from [10^(n-1), 10^n - 1], so a
// 6-digit code is always in 100000..999999 and never carries a leading zero.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) RandomCode(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	low := big.NewInt(1)
	for i := 1; i < length; i++ {
		low.Mul(low, big.NewInt(10))
	}

	// span = 9 * 10^(length-1), the count of n-digit integers
	span := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("read random failed: %w", err)
	}

	return n.Add(n, low).String(), nil
}
