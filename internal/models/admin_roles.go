package models

// RoleAdmin marks users that receive security alert notifications.
const RoleAdmin = "admin"

type AdminRole struct {
	UserID string `json:"user_id" db:"user_id"`
	Role   string `json:"role" db:"role"`
}
