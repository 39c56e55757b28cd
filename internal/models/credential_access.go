package models

import "time"

// CredentialAction is what was done with a trading-account credential.
type CredentialAction string

const (
	CredentialRead   CredentialAction = "read"
	CredentialWrite  CredentialAction = "write"
	CredentialDelete CredentialAction = "delete"
)

// Valid reports whether the action is one of read/write/delete.
func (a CredentialAction) Valid() bool {
	switch a {
	case CredentialRead, CredentialWrite, CredentialDelete:
		return true
	}
	return false
}

// CredentialAccessLog is one entry in the in-memory audit ring buffer.
// A durable copy is written to the security event store as a
// credential_access event.
type CredentialAccessLog struct {
	AccountID string           `json:"account_id"`
	Action    CredentialAction `json:"action"`
	UserID    string           `json:"user_id"`
	Timestamp time.Time        `json:"timestamp"`
}
