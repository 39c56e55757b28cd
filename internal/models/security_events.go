package models

import (
	"time"
)

// Event types recorded by the validator, the credential auditor and the
// monitor itself.
const (
	EventThreatDetected         = "threat_detected"
	EventFormValidationThreats  = "form_validation_threats"
	EventCredentialAccess       = "credential_access"
	EventCredentialViolation    = "credential_access_violation"
	EventUnencryptedCredentials = "unencrypted_credentials_detected"
	EventMonitoringCompleted    = "security_monitoring_completed"

	EventFailedLogin              = "failed_login"
	EventUnauthorizedAccess       = "unauthorized_access"
	EventSuspiciousFormSubmission = "suspicious_form_submission"
	EventRateLimitExceeded        = "rate_limit_exceeded"
	EventAdminAccessViolation     = "admin_access_violation"
	EventDataBreachAttempt        = "data_breach_attempt"
	EventSQLInjectionAttempt      = "sql_injection_attempt"
	EventXSSAttempt               = "xss_attempt"
)

// SecurityEvent is an append-only record of something the platform saw.
// Events are never updated or deleted by application code.
type SecurityEvent struct {
	ID          string                 `json:"id" db:"id"`
	EventType   string                 `json:"event_type" db:"event_type"`
	Details     map[string]interface{} `json:"details" db:"details"`
	IPAddress   string                 `json:"ip_address" db:"ip_address"`
	UserAgent   string                 `json:"user_agent,omitempty" db:"user_agent"`
	EventBucket int                    `json:"event_bucket" db:"event_bucket"`
	Timestamp   time.Time              `json:"timestamp" db:"timestamp"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
