package security

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// eventLogger is the slice of the Sink the validator needs. Detection
// side effects are best-effort and never block validation.
type eventLogger interface {
	Log(ctx context.Context, eventType string, details map[string]interface{}, ipAddress, userAgent string)
}

// ValidationResult is the transient outcome of one input check. It is
// never persisted; a threat_detected event derived from it may be.
type ValidationResult struct {
	IsValid  bool            `json:"is_valid"`
	Errors   []string        `json:"errors"`
	Threats  []string        `json:"threats"`
	Severity models.Severity `json:"severity"`
}

// FormResult aggregates per-field validation of a whole submission.
type FormResult struct {
	IsValid        bool                `json:"is_valid"`
	FieldErrors    map[string][]string `json:"field_errors"`
	OverallThreats []string            `json:"overall_threats"`
	Severity       models.Severity     `json:"severity"`
}

// SecurityMetrics are process-lifetime counters. They reset only on
// restart.
type SecurityMetrics struct {
	TotalValidations   int64      `json:"total_validations"`
	ThreatsDetected    int64      `json:"threats_detected"`
	CriticalThreats    int64      `json:"critical_threats"`
	LastThreatDetected *time.Time `json:"last_threat_detected,omitempty"`
}

// SecurityReport is the admin-facing summary derived from the metrics.
type SecurityReport struct {
	Summary         SecurityMetrics `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	RiskLevel       models.Severity `json:"risk_level"`
}

// Validator classifies inputs against the attack signature table and
// the per-context shape rules. Safe for concurrent use.
type Validator struct {
	maxInputLength int
	events         eventLogger
	logger         *zap.Logger

	mu      sync.Mutex
	metrics SecurityMetrics
}

// NewValidator wires the validator. events may be nil in which case
// detections are counted but not persisted.
func NewValidator(maxInputLength int, events eventLogger, logger *zap.Logger) *Validator {
	if maxInputLength <= 0 {
		maxInputLength = 5000
	}
	return &Validator{
		maxInputLength: maxInputLength,
		events:         events,
		logger:         logger,
	}
}

// ValidateInput checks a single value under the given context
// ("general", "email", "phone", "name", "trading_credential"). Threats
// are advisory below critical severity; context errors with no threat
// escalation also invalidate the input.
func (v *Validator) ValidateInput(ctx context.Context, input, inputContext string) ValidationResult {
	return v.validate(ctx, input, inputContext, true)
}

func (v *Validator) validate(ctx context.Context, input, inputContext string, logEvents bool) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("security validation failure", util.Any("panic", r))
			result = ValidationResult{
				IsValid:  false,
				Errors:   []string{"Validation system error"},
				Severity: models.SeverityHigh,
			}
		}
	}()

	v.mu.Lock()
	v.metrics.TotalValidations++
	v.mu.Unlock()

	result = ValidationResult{IsValid: true, Severity: models.SeverityLow}

	matched := detectThreats(input)
	if len(matched) > 0 {
		for _, t := range matched {
			result.Threats = append(result.Threats, t.name)
			result.Severity = models.MaxSeverity(result.Severity, t.severity)
		}
		result.IsValid = result.Severity != models.SeverityCritical

		v.mu.Lock()
		v.metrics.ThreatsDetected += int64(len(matched))
		if result.Severity == models.SeverityCritical {
			v.metrics.CriticalThreats++
			now := time.Now().UTC()
			v.metrics.LastThreatDetected = &now
		}
		v.mu.Unlock()

		if logEvents && v.events != nil {
			info, _ := ClientInfoFromContext(ctx)
			v.events.Log(ctx, models.EventThreatDetected, map[string]interface{}{
				"context":      inputContext,
				"threats":      result.Threats,
				"severity":     string(result.Severity),
				"input_length": len(input),
				"timestamp":    time.Now().UTC().Format(time.RFC3339),
			}, info.IPAddress, info.UserAgent)
		}
	}

	result.Errors = contextErrors(input, inputContext, v.maxInputLength)
	if len(result.Errors) > 0 && result.Severity == models.SeverityLow {
		result.IsValid = false
	}

	return result
}

func detectThreats(input string) []threatPattern {
	var matched []threatPattern
	for _, p := range threatPatterns {
		if p.match(input) {
			matched = append(matched, p)
		}
	}
	for _, p := range suspiciousPatterns {
		if p.match(input) {
			matched = append(matched, p)
		}
	}
	return matched
}

// ValidateForm validates every field of a submission. contexts maps a
// field name to its validation context; absent fields default to
// general. The form is invalid when any field has errors or the maximum
// severity is critical.
func (v *Validator) ValidateForm(ctx context.Context, form map[string]string, contexts map[string]string) FormResult {
	out := FormResult{
		FieldErrors: make(map[string][]string),
		Severity:    models.SeverityLow,
	}

	fields := make([]string, 0, len(form))
	for field := range form {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var allThreats []string
	for _, field := range fields {
		fieldContext := contexts[field]
		if fieldContext == "" {
			fieldContext = ContextGeneral
		}

		result := v.validate(ctx, form[field], fieldContext, false)
		if !result.IsValid || len(result.Errors) > 0 {
			out.FieldErrors[field] = append(append([]string{}, result.Errors...), result.Threats...)
		}
		allThreats = append(allThreats, result.Threats...)
		out.Severity = models.MaxSeverity(out.Severity, result.Severity)
	}

	seen := make(map[string]struct{}, len(allThreats))
	for _, t := range allThreats {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out.OverallThreats = append(out.OverallThreats, t)
		}
	}

	if len(allThreats) > 0 && v.events != nil {
		info, _ := ClientInfoFromContext(ctx)
		v.events.Log(ctx, models.EventFormValidationThreats, map[string]interface{}{
			"field_count":      len(form),
			"threats_detected": out.OverallThreats,
			"severity":         string(out.Severity),
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
		}, info.IPAddress, info.UserAgent)
	}

	out.IsValid = len(out.FieldErrors) == 0 && out.Severity != models.SeverityCritical
	return out
}

// Metrics returns a snapshot of the process-lifetime counters. Two
// calls with no validation in between return identical values.
func (v *Validator) Metrics() SecurityMetrics {
	v.mu.Lock()
	defer v.mu.Unlock()

	snapshot := v.metrics
	if v.metrics.LastThreatDetected != nil {
		t := *v.metrics.LastThreatDetected
		snapshot.LastThreatDetected = &t
	}
	return snapshot
}

// Report buckets the current metrics into a risk level with canned
// recommendations. Any critical threat ever seen pins the level to
// critical; otherwise the threat ratio decides.
func (v *Validator) Report() SecurityReport {
	summary := v.Metrics()
	level := riskLevel(summary)
	return SecurityReport{
		Summary:         summary,
		Recommendations: recommendations(level),
		RiskLevel:       level,
	}
}

func riskLevel(m SecurityMetrics) models.Severity {
	if m.CriticalThreats > 0 {
		return models.SeverityCritical
	}
	if m.TotalValidations > 0 {
		ratio := float64(m.ThreatsDetected) / float64(m.TotalValidations)
		if ratio > 0.1 {
			return models.SeverityHigh
		}
		if ratio > 0.05 {
			return models.SeverityMedium
		}
	}
	return models.SeverityLow
}

func recommendations(level models.Severity) []string {
	switch level {
	case models.SeverityCritical:
		return []string{
			"Immediate security review required",
			"Consider implementing additional input filters",
			"Enable enhanced monitoring and alerts",
		}
	case models.SeverityHigh:
		return []string{
			"Review recent security events",
			"Consider rate limiting for suspicious activities",
		}
	case models.SeverityMedium:
		return []string{
			"Monitor security trends",
			"Review validation rules",
		}
	default:
		return []string{
			"Security status normal",
			"Continue regular monitoring",
		}
	}
}
