// Package random is the single source of randomness for dice, match IDs,
// player IDs and session tokens.
package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Random can be swapped for a scripted source in tests
type Random interface {
	// Intn returns a uniform int in [0, n)
	Intn(n int) int

	// String draws length characters from alphabet
	String(length int, alphabet string) string
}

// CryptoRandom draws from crypto/rand
type CryptoRandom struct{}

// New creates a CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn panics if the system entropy source fails, since a silent fallback
// would bias every die and identifier.
func (CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("random: entropy source failed: %v", err))
	}
	return int(v.Int64())
}

func (r CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(out)
}
