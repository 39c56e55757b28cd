package security

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"security-service/internal/encryption"
	"security-service/internal/models"
)

// memAccountStore is an in-memory AccountStore.
type memAccountStore struct {
	accounts map[string]*models.TradingAccount
	getErr   error
	saveErr  error
	saved    []*models.TradingAccount
}

func (m *memAccountStore) GetAccount(_ context.Context, accountID string) (*models.TradingAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, errors.New("account not found")
	}
	copied := *account
	return &copied, nil
}

func (m *memAccountStore) SaveCredentials(_ context.Context, account *models.TradingAccount) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, account)
	return nil
}

type fakeEncryptor struct{ err error }

func (f *fakeEncryptor) EncryptField(_ context.Context, plaintext, _ string) (*encryption.EncryptedData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &encryption.EncryptedData{
		EncryptedValue: "enc:" + plaintext,
		EncryptedDEK:   "dek",
		KeyID:          "key-1",
	}, nil
}

type fakeHasher struct{}

func (fakeHasher) Fingerprint(value string) (string, error) {
	return "digest:" + value, nil
}

func newTestAuditor(store *memAccountStore, events eventLogger) *Auditor {
	return NewAuditor(store, events, &fakeEncryptor{}, fakeHasher{}, 10, 5*time.Minute, 1000, zap.NewNop())
}

func TestLogCredentialAccessRejectsUnknownAction(t *testing.T) {
	a := newTestAuditor(&memAccountStore{}, nil)

	err := a.LogCredentialAccess(context.Background(), "acct-1", models.CredentialAction("escalate"), "user-1")

	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Empty(t, a.AccessLogs())
}

func TestLogCredentialAccessRingBufferCap(t *testing.T) {
	a := NewAuditor(&memAccountStore{}, nil, &fakeEncryptor{}, fakeHasher{}, 10, 5*time.Minute, 5, zap.NewNop())

	for i := 0; i < 8; i++ {
		require.NoError(t, a.LogCredentialAccess(context.Background(), fmt.Sprintf("acct-%d", i), models.CredentialRead, "user-1"))
	}

	logs := a.AccessLogs()
	require.Len(t, logs, 5)
	// Oldest entries are evicted first
	assert.Equal(t, "acct-3", logs[0].AccountID)
	assert.Equal(t, "acct-7", logs[4].AccountID)
}

func TestDetectSuspiciousActivityBoundary(t *testing.T) {
	events := &recordingLogger{}
	a := newTestAuditor(&memAccountStore{}, events)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.LogCredentialAccess(context.Background(), "acct-1", models.CredentialRead, "user-1"))
	}
	assert.False(t, a.DetectSuspiciousActivity(context.Background(), "user-1"),
		"exactly the limit is still normal")
	assert.Empty(t, events.byType(models.EventCredentialViolation))

	require.NoError(t, a.LogCredentialAccess(context.Background(), "acct-1", models.CredentialRead, "user-1"))
	assert.True(t, a.DetectSuspiciousActivity(context.Background(), "user-1"))
	assert.Len(t, events.byType(models.EventCredentialViolation), 1)
}

func TestDetectSuspiciousActivityIgnoresStaleEntries(t *testing.T) {
	a := newTestAuditor(&memAccountStore{}, nil)
	base := time.Now()
	a.clock = func() time.Time { return base }

	for i := 0; i < 20; i++ {
		require.NoError(t, a.LogCredentialAccess(context.Background(), "acct-1", models.CredentialRead, "user-1"))
	}

	// Move past the window; the old accesses no longer count
	a.clock = func() time.Time { return base.Add(6 * time.Minute) }
	assert.False(t, a.DetectSuspiciousActivity(context.Background(), "user-1"))
}

func TestDetectSuspiciousActivityPerUser(t *testing.T) {
	a := newTestAuditor(&memAccountStore{}, nil)

	for i := 0; i < 11; i++ {
		require.NoError(t, a.LogCredentialAccess(context.Background(), "acct-1", models.CredentialRead, "user-1"))
	}
	assert.True(t, a.DetectSuspiciousActivity(context.Background(), "user-1"))
	assert.False(t, a.DetectSuspiciousActivity(context.Background(), "user-2"))
}

func TestVerifyEncryptionFailsClosed(t *testing.T) {
	events := &recordingLogger{}
	store := &memAccountStore{getErr: errors.New("backend down")}
	a := newTestAuditor(store, events)

	assert.False(t, a.VerifyEncryption(context.Background(), "acct-1"))
	assert.Len(t, events.byType(models.EventUnencryptedCredentials), 1)
}

func TestVerifyEncryptionDetectsPlaintext(t *testing.T) {
	events := &recordingLogger{}
	store := &memAccountStore{accounts: map[string]*models.TradingAccount{
		"plain": {ID: "plain", UserID: "user-1", EncryptedCredentials: "value"},
		"enc":   {ID: "enc", UserID: "user-1", EncryptedCredentials: "value", EncryptionKeyID: "key-1"},
	}}
	a := newTestAuditor(store, events)

	assert.False(t, a.VerifyEncryption(context.Background(), "plain"),
		"ciphertext without a key reference is not encrypted")
	assert.True(t, a.VerifyEncryption(context.Background(), "enc"))
	assert.Len(t, events.byType(models.EventUnencryptedCredentials), 1)
}

func TestStoreCredentialsRejectsNonOwner(t *testing.T) {
	store := &memAccountStore{accounts: map[string]*models.TradingAccount{
		"acct-1": {ID: "acct-1", UserID: "owner"},
	}}
	a := newTestAuditor(store, nil)

	err := a.StoreCredentials(context.Background(), "acct-1", "secret", "intruder")

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.saved)
	// The attempt itself is still recorded
	logs := a.AccessLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.CredentialWrite, logs[0].Action)
	assert.Equal(t, "intruder", logs[0].UserID)
}

func TestStoreCredentialsEncryptsAndFingerprints(t *testing.T) {
	store := &memAccountStore{accounts: map[string]*models.TradingAccount{
		"acct-1": {ID: "acct-1", UserID: "owner"},
	}}
	a := newTestAuditor(store, nil)

	require.NoError(t, a.StoreCredentials(context.Background(), "acct-1", "mt5-password", "owner"))

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "enc:mt5-password", saved.EncryptedCredentials)
	assert.Equal(t, "dek", saved.EncryptedDEK)
	assert.Equal(t, "key-1", saved.EncryptionKeyID)
	assert.Equal(t, "digest:mt5-password", saved.CredentialDigest)
	assert.True(t, saved.Encrypted())
	assert.False(t, saved.UpdatedAt.IsZero())
}

func TestStoreCredentialsEncryptionFailureAborts(t *testing.T) {
	store := &memAccountStore{accounts: map[string]*models.TradingAccount{
		"acct-1": {ID: "acct-1", UserID: "owner"},
	}}
	a := NewAuditor(store, nil, &fakeEncryptor{err: errors.New("kms unavailable")}, fakeHasher{}, 10, 5*time.Minute, 1000, zap.NewNop())

	err := a.StoreCredentials(context.Background(), "acct-1", "secret", "owner")

	require.Error(t, err)
	assert.Empty(t, store.saved)
}
