package security

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceGenerator_Generate(t *testing.T) {
	t.Parallel()

	g := NewNonceGenerator(DefaultNonceBytes)
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		nonce, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, nonce, 32)

		raw, err := hex.DecodeString(nonce)
		require.NoError(t, err)
		assert.Len(t, raw, DefaultNonceBytes)

		_, dup := seen[nonce]
		require.False(t, dup, "duplicate nonce %s", nonce)
		seen[nonce] = struct{}{}
	}
}

func TestNewNonceGenerator_MinimumSize(t *testing.T) {
	t.Parallel()

	nonce, err := NewNonceGenerator(4).Generate()
	require.NoError(t, err)
	assert.Len(t, nonce, 2*DefaultNonceBytes)

	nonce, err = NewNonceGenerator(32).Generate()
	require.NoError(t, err)
	assert.Len(t, nonce, 64)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNonceGenerator_SourceFailure(t *testing.T) {
	t.Parallel()

	g := &NonceGenerator{size: DefaultNonceBytes, reader: failingReader{}}
	nonce, err := g.Generate()
	require.Error(t, err)
	assert.Empty(t, nonce)
}
