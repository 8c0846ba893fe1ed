package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"shopify-oauth-layer/internal/ports"
)

// DefaultNonceBytes is the entropy of a generated state value (32 hex characters).
const DefaultNonceBytes = 16

// NonceGenerator produces hex-encoded random tokens from crypto/rand.
type NonceGenerator struct {
	size   int
	reader io.Reader
}

var _ ports.NonceGenerator = (*NonceGenerator)(nil)

// NewNonceGenerator creates a generator of size random bytes. Sizes below
// DefaultNonceBytes are raised to it.
func NewNonceGenerator(size int) *NonceGenerator {
	if size < DefaultNonceBytes {
		size = DefaultNonceBytes
	}
	return &NonceGenerator{size: size, reader: rand.Reader}
}

// Generate returns a fresh nonce. An error means the system entropy source failed.
func (g *NonceGenerator) Generate() (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
