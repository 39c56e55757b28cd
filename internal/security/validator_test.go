package security

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"security-service/internal/models"
)

type recordedEvent struct {
	eventType string
	details   map[string]interface{}
	ipAddress string
	userAgent string
}

// recordingLogger captures events in memory for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingLogger) Log(_ context.Context, eventType string, details map[string]interface{}, ipAddress, userAgent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, details, ipAddress, userAgent})
}

func (r *recordingLogger) byType(eventType string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestValidator(t *testing.T) (*Validator, *recordingLogger) {
	t.Helper()
	events := &recordingLogger{}
	return NewValidator(5000, events, zap.NewNop()), events
}

func TestValidateInputDetectsSQLInjection(t *testing.T) {
	v, events := newTestValidator(t)

	result := v.ValidateInput(context.Background(), "drop table accounts", ContextGeneral)

	assert.False(t, result.IsValid)
	assert.Equal(t, models.SeverityCritical, result.Severity)
	assert.Contains(t, result.Threats, "SQL Injection")

	logged := events.byType(models.EventThreatDetected)
	require.Len(t, logged, 1)
	assert.Equal(t, "critical", logged[0].details["severity"])
	assert.Equal(t, "internal", logged[0].ipAddress)
}

func TestValidateInputHighSeverityThreatStaysValid(t *testing.T) {
	v, _ := newTestValidator(t)

	// XSS is high, not critical, so the input is flagged but usable
	result := v.ValidateInput(context.Background(), "onerror=payload", ContextGeneral)

	assert.True(t, result.IsValid)
	assert.Equal(t, models.SeverityHigh, result.Severity)
	assert.Contains(t, result.Threats, "XSS Attack")
}

func TestValidateInputCleanEmail(t *testing.T) {
	v, events := newTestValidator(t)

	result := v.ValidateInput(context.Background(), "user@example.com", ContextEmail)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Threats)
	assert.Equal(t, models.SeverityLow, result.Severity)
	assert.Empty(t, events.byType(models.EventThreatDetected))
}

func TestValidateInputContextErrors(t *testing.T) {
	v, _ := newTestValidator(t)

	tests := []struct {
		name    string
		input   string
		context string
		wantErr string
	}{
		{"bad email", "not-an-email", ContextEmail, "Invalid email format"},
		{"bad phone", "123", ContextPhone, "Invalid phone format"},
		{"bad name", "X", ContextName, "Invalid name format"},
		{"short credential", "ab", ContextTradingCredential, "Trading credential must be 3-50 characters"},
		{"empty input", "   ", ContextGeneral, "Input cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateInput(context.Background(), tt.input, tt.context)
			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tt.wantErr)
			assert.Equal(t, models.SeverityLow, result.Severity)
		})
	}
}

func TestValidateInputRejectsOversizedInput(t *testing.T) {
	v := NewValidator(10, nil, zap.NewNop())

	result := v.ValidateInput(context.Background(), "abcdefghijk", ContextGeneral)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Input exceeds maximum length")
}

func TestValidateInputClientInfoPropagates(t *testing.T) {
	v, events := newTestValidator(t)
	ctx := WithClientInfo(context.Background(), ClientInfo{IPAddress: "203.0.113.9", UserAgent: "test-agent"})

	v.ValidateInput(ctx, "drop everything", ContextGeneral)

	logged := events.byType(models.EventThreatDetected)
	require.Len(t, logged, 1)
	assert.Equal(t, "203.0.113.9", logged[0].ipAddress)
	assert.Equal(t, "test-agent", logged[0].userAgent)
}

func TestValidateFormCollectsFieldErrors(t *testing.T) {
	v, _ := newTestValidator(t)

	form := map[string]string{
		"email": "not-an-email",
		"name":  "Jane Doe",
	}
	contexts := map[string]string{
		"email": ContextEmail,
		"name":  ContextName,
	}

	result := v.ValidateForm(context.Background(), form, contexts)

	assert.False(t, result.IsValid)
	assert.Equal(t, models.SeverityLow, result.Severity)
	require.Contains(t, result.FieldErrors, "email")
	assert.Contains(t, result.FieldErrors["email"], "Invalid email format")
	assert.NotContains(t, result.FieldErrors, "name")
}

func TestValidateFormCriticalThreatInvalidates(t *testing.T) {
	v, events := newTestValidator(t)

	form := map[string]string{
		"comment": "drop table users",
		"name":    "Jane Doe",
	}
	result := v.ValidateForm(context.Background(), form, map[string]string{"name": ContextName})

	assert.False(t, result.IsValid)
	assert.Equal(t, models.SeverityCritical, result.Severity)
	assert.Contains(t, result.OverallThreats, "SQL Injection")

	// One aggregate event, not one per field
	assert.Len(t, events.byType(models.EventFormValidationThreats), 1)
	assert.Empty(t, events.byType(models.EventThreatDetected))
}

func TestValidateFormDeduplicatesThreats(t *testing.T) {
	v, _ := newTestValidator(t)

	form := map[string]string{
		"a": "onerror=x",
		"b": "onerror=y",
	}
	result := v.ValidateForm(context.Background(), form, nil)

	count := 0
	for _, threat := range result.OverallThreats {
		if threat == "XSS Attack" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMetricsSnapshotIsStable(t *testing.T) {
	v, _ := newTestValidator(t)

	v.ValidateInput(context.Background(), "user@example.com", ContextEmail)
	v.ValidateInput(context.Background(), "drop table accounts", ContextGeneral)

	first := v.Metrics()
	second := v.Metrics()

	assert.Equal(t, first.TotalValidations, second.TotalValidations)
	assert.Equal(t, first.ThreatsDetected, second.ThreatsDetected)
	assert.Equal(t, first.CriticalThreats, second.CriticalThreats)

	assert.Equal(t, int64(2), first.TotalValidations)
	assert.Equal(t, int64(1), first.CriticalThreats)
	require.NotNil(t, first.LastThreatDetected)

	// The snapshot must not alias internal state
	*first.LastThreatDetected = first.LastThreatDetected.AddDate(1, 0, 0)
	assert.NotEqual(t, *first.LastThreatDetected, *v.Metrics().LastThreatDetected)
}

func TestReportRiskLevels(t *testing.T) {
	t.Run("no activity is low", func(t *testing.T) {
		v, _ := newTestValidator(t)
		report := v.Report()
		assert.Equal(t, models.SeverityLow, report.RiskLevel)
		assert.Contains(t, report.Recommendations, "Security status normal")
	})

	t.Run("any critical threat pins critical", func(t *testing.T) {
		v, _ := newTestValidator(t)
		v.ValidateInput(context.Background(), "drop table accounts", ContextGeneral)
		for i := 0; i < 100; i++ {
			v.ValidateInput(context.Background(), "clean input", ContextGeneral)
		}
		report := v.Report()
		assert.Equal(t, models.SeverityCritical, report.RiskLevel)
		assert.Contains(t, report.Recommendations, "Immediate security review required")
	})

	t.Run("high threat ratio without criticals is high", func(t *testing.T) {
		v, _ := newTestValidator(t)
		for i := 0; i < 2; i++ {
			v.ValidateInput(context.Background(), "onerror=x", ContextGeneral)
		}
		for i := 0; i < 8; i++ {
			v.ValidateInput(context.Background(), "clean input", ContextGeneral)
		}
		report := v.Report()
		assert.Equal(t, models.SeverityHigh, report.RiskLevel)
	})
}
