// Package gameid generates the short human-readable codes that identify
// bingo sessions, e.g. "HK7Q2M". Codes are a fixed prefix plus five
// characters of Crockford base32, uppercased for readability over chat.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford's base32 alphabet, uppercased. Excludes I, L, O and U so codes
// survive being read aloud or retyped from a chat message.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	prefix     = "H"
	randomLen  = 5
	CodeLength = len(prefix) + randomLen
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator handles session code generation with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator with optional RandSource
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new session code using crypto/rand
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new session code using the generator's RandSource
func (g *Generator) Generate() string {
	var sb strings.Builder
	sb.Grow(CodeLength)
	sb.WriteString(prefix)

	if g.randSource != nil {
		// Deterministic source for testing
		for i := 0; i < randomLen; i++ {
			sb.WriteByte(alphabet[g.randSource.Intn(len(alphabet))])
		}
		return sb.String()
	}

	buf := make([]byte, randomLen)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String()
}

// Validate checks if a session code is well formed
func Validate(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("session code must be exactly %d characters, got %d", CodeLength, len(code))
	}
	if !strings.HasPrefix(code, prefix) {
		return fmt.Errorf("session code must start with %q", prefix)
	}
	for i := len(prefix); i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
