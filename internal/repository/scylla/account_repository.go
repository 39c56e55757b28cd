package scylla

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// ErrAccountNotFound is returned when an account id has no row.
var ErrAccountNotFound = errors.New("trading account not found")

// AccountRepository persists trading accounts and their encrypted
// credential envelopes.
type AccountRepository struct {
	client *ScyllaClient
	logger *zap.Logger
}

func NewAccountRepository(client *ScyllaClient, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		client: client,
		logger: logger,
	}
}

const (
	accountByIDCQL = `
		SELECT id, user_id, encrypted_credentials, encrypted_dek,
		       encryption_key_id, credential_digest, created_at, updated_at
		FROM trading_accounts WHERE id = ?`

	saveCredentialsCQL = `
		UPDATE trading_accounts
		SET encrypted_credentials = ?, encrypted_dek = ?, encryption_key_id = ?,
		    credential_digest = ?, updated_at = ?
		WHERE id = ?`
)

// GetAccount loads one account row.
func (r *AccountRepository) GetAccount(ctx context.Context, accountID string) (*models.TradingAccount, error) {
	var account models.TradingAccount
	if err := r.client.Session.Query(accountByIDCQL, accountID).WithContext(ctx).Scan(
		&account.ID, &account.UserID, &account.EncryptedCredentials,
		&account.EncryptedDEK, &account.EncryptionKeyID,
		&account.CredentialDigest, &account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load trading account: %w", err)
	}
	return &account, nil
}

// SaveCredentials writes the credential envelope for an account.
func (r *AccountRepository) SaveCredentials(ctx context.Context, account *models.TradingAccount) error {
	if err := r.client.Session.Query(saveCredentialsCQL,
		account.EncryptedCredentials, account.EncryptedDEK,
		account.EncryptionKeyID, account.CredentialDigest,
		account.UpdatedAt, account.ID,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	r.logger.Debug("credentials saved", util.String("account_id", account.ID))
	return nil
}
