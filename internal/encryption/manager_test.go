package encryption

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"security-service/internal/config"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	m := NewManager(config.KMSConfig{}, nil)

	sealed, err := m.EncryptField(context.Background(), "broker-password-9", "trading_credentials")
	require.NoError(t, err)
	assert.NotEmpty(t, sealed.EncryptedValue)
	assert.NotEmpty(t, sealed.EncryptedDEK)
	assert.NotEmpty(t, sealed.KeyID)
	assert.Equal(t, "v1", sealed.Version)
	assert.NotEqual(t, "broker-password-9", sealed.EncryptedValue)

	plain, err := m.DecryptField(context.Background(), sealed)
	require.NoError(t, err)
	assert.Equal(t, "broker-password-9", plain)
}

func TestDecryptSurvivesColdCache(t *testing.T) {
	m := NewManager(config.KMSConfig{}, nil)

	sealed, err := m.EncryptField(context.Background(), "secret", "trading_credentials")
	require.NoError(t, err)

	// A separate manager has no cached data keys, like a restarted process
	fresh := NewManager(config.KMSConfig{}, nil)
	plain, err := fresh.DecryptField(context.Background(), sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	m := NewManager(config.KMSConfig{}, nil)

	sealed, err := m.EncryptField(context.Background(), "secret", "trading_credentials")
	require.NoError(t, err)

	sealed.EncryptedValue = "AAAA" + sealed.EncryptedValue[4:]
	fresh := NewManager(config.KMSConfig{}, nil)
	_, err = fresh.DecryptField(context.Background(), sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestClearCacheDropsKeys(t *testing.T) {
	m := NewManager(config.KMSConfig{}, nil)

	sealed, err := m.EncryptField(context.Background(), "secret", "trading_credentials")
	require.NoError(t, err)

	m.ClearCache()

	// Local unwrap still works after the cache is dropped
	plain, err := m.DecryptField(context.Background(), sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}
