package models

import "time"

// TradingAccount links a user to a broker account integration. The
// credential payload is stored as KMS envelope ciphertext; the digest is
// an argon2 fingerprint used to verify a presented credential without
// decrypting.
type TradingAccount struct {
	ID                   string    `json:"id" db:"id"`
	UserID               string    `json:"user_id" db:"user_id"`
	EncryptedCredentials string    `json:"-" db:"encrypted_credentials"`
	EncryptedDEK         string    `json:"-" db:"encrypted_dek"`
	EncryptionKeyID      string    `json:"encryption_key_id,omitempty" db:"encryption_key_id"`
	CredentialDigest     string    `json:"-" db:"credential_digest"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Encrypted reports whether the stored credentials carry both the
// ciphertext and the key reference needed to decrypt them.
func (a *TradingAccount) Encrypted() bool {
	return a != nil && a.EncryptedCredentials != "" && a.EncryptionKeyID != ""
}
