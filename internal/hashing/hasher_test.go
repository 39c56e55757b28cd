package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintRoundTrip(t *testing.T) {
	h := NewHasher(DefaultParams())

	encoded, err := h.Fingerprint("mt5-password-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := h.Verify("mt5-password-123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintIsSalted(t *testing.T) {
	h := NewHasher(DefaultParams())

	first, err := h.Fingerprint("same-value")
	require.NoError(t, err)
	second, err := h.Fingerprint("same-value")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedEncoding(t *testing.T) {
	h := NewHasher(DefaultParams())

	_, err := h.Verify("value", "not-an-encoded-hash")
	assert.Error(t, err)
}
