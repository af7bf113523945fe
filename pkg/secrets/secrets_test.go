package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "signup/pkg/domain-errors"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	t.Run("hash verifies and is salted", func(t *testing.T) {
		first, err := h.Hash("Abcdefg1")
		require.NoError(t, err)
		second, err := h.Hash("Abcdefg1")
		require.NoError(t, err)

		assert.NotEqual(t, "Abcdefg1", first)
		assert.NotEqual(t, first, second, "bcrypt hashes must be salted")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(first), []byte("Abcdefg1")))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(second), []byte("Abcdefg1")))
	})

	t.Run("hash uses the configured cost", func(t *testing.T) {
		hash, err := h.Hash("Abcdefg1")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, h.Cost(), cost)
		assert.ErrorIs(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Abcdefg2")), bcrypt.ErrMismatchedHashAndPassword)
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := h.Hash("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("overlong secret rejected", func(t *testing.T) {
		_, err := h.Hash(strings.Repeat("A1a", 30))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestNewHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 12, NewHasher(12).Cost())
}
