package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"security-service/internal/encryption"
	"security-service/internal/models"
	"security-service/internal/util"
)

var (
	// ErrUnauthorized is returned when a user tries to store credentials
	// for an account they do not own.
	ErrUnauthorized = errors.New("unauthorized credential access")
	// ErrInvalidAction is returned for an unknown credential action.
	ErrInvalidAction = errors.New("invalid credential action")
)

// AccountStore is the persistence contract for trading accounts.
type AccountStore interface {
	GetAccount(ctx context.Context, accountID string) (*models.TradingAccount, error)
	SaveCredentials(ctx context.Context, account *models.TradingAccount) error
}

// CredentialEncryptor provides envelope encryption for stored secrets.
type CredentialEncryptor interface {
	EncryptField(ctx context.Context, plaintext, keyPurpose string) (*encryption.EncryptedData, error)
}

// CredentialHasher fingerprints a credential so later presentations can
// be verified without decrypting the stored copy.
type CredentialHasher interface {
	Fingerprint(value string) (string, error)
}

// Auditor keeps the credential-access audit trail: an in-memory ring
// buffer for fast pattern checks plus a durable credential_access event
// per touch. Safe for concurrent use.
type Auditor struct {
	accounts  AccountStore
	events    eventLogger
	encryptor CredentialEncryptor
	hasher    CredentialHasher
	logger    *zap.Logger

	accessLimit  int
	accessWindow time.Duration
	capacity     int

	mu    sync.Mutex
	logs  []models.CredentialAccessLog
	clock func() time.Time
}

// NewAuditor wires the auditor. accessLimit is the highest in-window
// access count that is still considered normal.
func NewAuditor(accounts AccountStore, events eventLogger, encryptor CredentialEncryptor, hasher CredentialHasher, accessLimit int, accessWindow time.Duration, capacity int, logger *zap.Logger) *Auditor {
	if accessLimit <= 0 {
		accessLimit = 10
	}
	if accessWindow <= 0 {
		accessWindow = 5 * time.Minute
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &Auditor{
		accounts:     accounts,
		events:       events,
		encryptor:    encryptor,
		hasher:       hasher,
		logger:       logger,
		accessLimit:  accessLimit,
		accessWindow: accessWindow,
		capacity:     capacity,
		clock:        time.Now,
	}
}

// LogCredentialAccess records one credential touch in the ring buffer
// and emits the durable audit event. The durable write is best-effort.
func (a *Auditor) LogCredentialAccess(ctx context.Context, accountID string, action models.CredentialAction, userID string) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	entry := models.CredentialAccessLog{
		AccountID: accountID,
		Action:    action,
		UserID:    userID,
		Timestamp: a.clock().UTC(),
	}

	a.mu.Lock()
	a.logs = append(a.logs, entry)
	if len(a.logs) > a.capacity {
		a.logs = a.logs[len(a.logs)-a.capacity:]
	}
	a.mu.Unlock()

	if a.events != nil {
		info, _ := ClientInfoFromContext(ctx)
		a.events.Log(ctx, models.EventCredentialAccess, map[string]interface{}{
			"account_id": accountID,
			"action":     string(action),
			"user_id":    userID,
			"timestamp":  entry.Timestamp.Format(time.RFC3339),
		}, info.IPAddress, info.UserAgent)
	}

	a.logger.Info("credential access logged",
		util.String("account_id", accountID),
		util.String("action", string(action)),
		util.String("user_id", userID))
	return nil
}

// DetectSuspiciousActivity reports whether the user exceeded the access
// limit inside the trailing window. Exactly the limit is still normal;
// only strictly more trips the flag.
func (a *Auditor) DetectSuspiciousActivity(ctx context.Context, userID string) bool {
	cutoff := a.clock().Add(-a.accessWindow)

	a.mu.Lock()
	recent := 0
	for _, entry := range a.logs {
		if entry.UserID == userID && entry.Timestamp.After(cutoff) {
			recent++
		}
	}
	a.mu.Unlock()

	if recent <= a.accessLimit {
		return false
	}

	a.logger.Warn("suspicious credential access pattern detected",
		util.String("user_id", userID),
		util.Int("access_count", recent))

	if a.events != nil {
		info, _ := ClientInfoFromContext(ctx)
		a.events.Log(ctx, models.EventCredentialViolation, map[string]interface{}{
			"user_id":        userID,
			"access_count":   recent,
			"window_seconds": int(a.accessWindow.Seconds()),
		}, info.IPAddress, info.UserAgent)
	}
	return true
}

// VerifyEncryption checks that the stored credentials carry both
// ciphertext and the key reference. It fails closed: a missing account
// or a lookup error counts as unencrypted.
func (a *Auditor) VerifyEncryption(ctx context.Context, accountID string) bool {
	account, err := a.accounts.GetAccount(ctx, accountID)
	if err != nil {
		a.logger.Warn("encryption verification failed",
			util.String("account_id", accountID),
			util.ErrorField(err))
		a.reportUnencrypted(ctx, accountID)
		return false
	}

	if !account.Encrypted() {
		a.logger.Warn("unencrypted credentials detected",
			util.String("account_id", accountID))
		a.reportUnencrypted(ctx, accountID)
		return false
	}
	return true
}

func (a *Auditor) reportUnencrypted(ctx context.Context, accountID string) {
	if a.events == nil {
		return
	}
	info, _ := ClientInfoFromContext(ctx)
	a.events.Log(ctx, models.EventUnencryptedCredentials, map[string]interface{}{
		"account_id": accountID,
	}, info.IPAddress, info.UserAgent)
}

// StoreCredentials re-authorizes ownership server-side, logs the write
// and persists the credential as KMS envelope ciphertext plus an argon2
// fingerprint.
func (a *Auditor) StoreCredentials(ctx context.Context, accountID, credentials, userID string) error {
	account, err := a.accounts.GetAccount(ctx, accountID)
	if err != nil || account.UserID != userID {
		a.logger.Warn("unauthorized credential storage attempt",
			util.String("account_id", accountID),
			util.String("user_id", userID))
		_ = a.LogCredentialAccess(ctx, accountID, models.CredentialWrite, userID)
		return ErrUnauthorized
	}

	if err := a.LogCredentialAccess(ctx, accountID, models.CredentialWrite, userID); err != nil {
		return err
	}

	encrypted, err := a.encryptor.EncryptField(ctx, credentials, "trading_credentials")
	if err != nil {
		return fmt.Errorf("credential encryption failed: %w", err)
	}

	digest, err := a.hasher.Fingerprint(credentials)
	if err != nil {
		return fmt.Errorf("credential fingerprint failed: %w", err)
	}

	account.EncryptedCredentials = encrypted.EncryptedValue
	account.EncryptedDEK = encrypted.EncryptedDEK
	account.EncryptionKeyID = encrypted.KeyID
	account.CredentialDigest = digest
	account.UpdatedAt = a.clock().UTC()

	if err := a.accounts.SaveCredentials(ctx, account); err != nil {
		return fmt.Errorf("credential storage failed: %w", err)
	}

	a.logger.Info("credentials stored",
		util.String("account_id", accountID),
		util.String("key_id", encrypted.KeyID))
	return nil
}

// AccessLogs returns a copy of the current ring buffer for admin review.
func (a *Auditor) AccessLogs() []models.CredentialAccessLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.CredentialAccessLog, len(a.logs))
	copy(out, a.logs)
	return out
}

// CleanupLogs truncates the buffer to the configured capacity.
func (a *Auditor) CleanupLogs() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.logs) > a.capacity {
		a.logs = a.logs[len(a.logs)-a.capacity:]
	}
}
