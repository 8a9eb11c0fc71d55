package room

import (
	"errors"
	"math/rand"
)

const (
	codeLength = 4
	maxRetries = 100
)

// I and O are left out; they read as 1 and 0.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// ErrNoFreeCode is returned when no unused room code could be drawn.
var ErrNoFreeCode = errors.New("no free room code")

// GenerateCode draws a random 4-letter room code that taken does not report
// as in use.
func GenerateCode(rng *rand.Rand, taken func(string) bool) (string, error) {
	for range maxRetries {
		code := randomCode(rng)
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrNoFreeCode
}

func randomCode(rng *rand.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
