package models

import "time"

// NotificationTypeSecurityAlert is the type the monitor attaches to
// every alert it fans out to admins.
const NotificationTypeSecurityAlert = "security_alert"

// Notification is an admin-facing alert row. Only ReadAt is ever
// mutated after insert.
type Notification struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Title     string                 `json:"title" db:"title"`
	Message   string                 `json:"message" db:"message"`
	Type      string                 `json:"type" db:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	ReadAt    *time.Time             `json:"read_at,omitempty" db:"read_at"`
}
