package generator

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultLength gives 62^6 ≈ 5.7e10 combinations, plenty for a
// store that prunes itself every few minutes.
const DefaultLength = 6

var base = big.NewInt(int64(len(alphabet)))

// Generator produces random alphanumeric short codes.
// It makes no uniqueness guarantee; collisions are resolved by the
// store's upsert policy (last write wins).
type Generator struct {
	length int
}

// New creates a generator with a fixed code length (DefaultLength if <= 0).
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a new random code drawn uniformly from the
// 62-symbol alphabet. It fails only if the system randomness
// source is unavailable.
func (g *Generator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		idx, err := rand.Int(rand.Reader, base) // uniform in [0,62)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// Length returns the configured code length.
func (g *Generator) Length() int { return g.length }

// Alphabet exposes the code alphabet (useful for tests).
func Alphabet() string { return alphabet }
