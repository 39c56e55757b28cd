package security

import (
	"regexp"
	"strings"

	"security-service/internal/models"
)

// threatPattern is one attack signature. Patterns are evaluated in the
// order they are declared; severity of a result is the maximum across
// all matches.
type threatPattern struct {
	name     string
	match    func(string) bool
	severity models.Severity
}

func regexMatcher(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

// threatPatterns are the primary attack signatures. Case-insensitive
// like the dialect they were verified against.
var threatPatterns = []threatPattern{
	{
		name:     "SQL Injection",
		match:    regexMatcher(`(?i)(union|select|insert|update|delete|drop|create|alter|exec|execute|script|javascript|vbscript)`),
		severity: models.SeverityCritical,
	},
	{
		name:     "XSS Attack",
		match:    regexMatcher(`(?i)(<script|javascript:|vbscript:|onload|onerror|onclick)`),
		severity: models.SeverityHigh,
	},
	{
		name:     "Path Traversal",
		match:    regexMatcher(`(?i)(\.\./|\.\.\\|%2e%2e%2f|%2e%2e\\)`),
		severity: models.SeverityHigh,
	},
	{
		name:     "Command Injection",
		match:    regexMatcher("(?i)(;|\\||&|`|\\$\\(|eval\\(|system\\(|exec\\()"),
		severity: models.SeverityCritical,
	},
	{
		name:     "LDAP Injection",
		match:    regexMatcher(`(\*|\(|\)|\\|/|\+|=|<|>|;|,|\x00)`),
		severity: models.SeverityMedium,
	},
	{
		name:     "Email Header Injection",
		match:    regexMatcher(`(?i)(\n|\r|%0a|%0d)`),
		severity: models.SeverityMedium,
	},
}

// suspiciousPatterns are weaker heuristics that still count as threats.
var suspiciousPatterns = []threatPattern{
	{
		name:     "Multiple Special Characters",
		match:    regexMatcher(`[!@#$%^&*()_+=\[\]{}|;:,.<>?]{5,}`),
		severity: models.SeverityLow,
	},
	{
		name:     "Encoded Content",
		match:    regexMatcher(`(?i)%[0-9a-f]{2}`),
		severity: models.SeverityMedium,
	},
	{
		// The source dialect used a backreference for this; RE2 has
		// none, so the run length is counted directly.
		name:     "Long Repetitive Content",
		match:    longRepeatedRun(50),
		severity: models.SeverityLow,
	},
}

// longRepeatedRun reports inputs where one rune repeats more than limit
// times in a row.
func longRepeatedRun(limit int) func(string) bool {
	return func(s string) bool {
		var prev rune
		run := 0
		for _, r := range s {
			if r == prev {
				run++
				if run > limit {
					return true
				}
			} else {
				prev = r
				run = 1
			}
		}
		return false
	}
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s\-']{2,50}$`)
)

// Validation contexts understood by contextErrors.
const (
	ContextGeneral           = "general"
	ContextEmail             = "email"
	ContextPhone             = "phone"
	ContextName              = "name"
	ContextTradingCredential = "trading_credential"
)

// contextErrors runs the context-specific shape checks plus the general
// length and emptiness rules. These are recoverable errors, distinct
// from threats.
func contextErrors(input, context string, maxLength int) []string {
	var errs []string

	switch context {
	case ContextEmail:
		if !emailRe.MatchString(input) {
			errs = append(errs, "Invalid email format")
		}
	case ContextPhone:
		if !phoneRe.MatchString(input) {
			errs = append(errs, "Invalid phone format")
		}
	case ContextName:
		if !nameRe.MatchString(input) {
			errs = append(errs, "Invalid name format")
		}
	case ContextTradingCredential:
		if len(input) < 3 || len(input) > 50 {
			errs = append(errs, "Trading credential must be 3-50 characters")
		}
	}

	if len(input) > maxLength {
		errs = append(errs, "Input exceeds maximum length")
	}
	if strings.TrimSpace(input) == "" {
		errs = append(errs, "Input cannot be empty")
	}

	return errs
}
