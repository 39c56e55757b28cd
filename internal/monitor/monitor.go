package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// EventStore is the slice of the event repository the monitor uses.
type EventStore interface {
	RecentEvents(ctx context.Context, since time.Time) ([]models.SecurityEvent, error)
	Append(ctx context.Context, event models.SecurityEvent) error
}

// NotificationStore receives the alert fan-out. Inserts are not
// transactional; a mid-batch failure leaves earlier rows in place.
type NotificationStore interface {
	InsertBatch(ctx context.Context, notifications []models.Notification) error
}

// AdminDirectory enumerates the users to notify.
type AdminDirectory interface {
	AdminUserIDs(ctx context.Context) ([]string, error)
}

// WindowLease serializes sweeps over the same window. A nil lease runs
// unguarded.
type WindowLease interface {
	Acquire(ctx context.Context, windowStart time.Time) (bool, error)
}

// Event types that warrant immediate admin attention.
var criticalEventTypes = map[string]struct{}{
	models.EventFailedLogin:              {},
	models.EventUnauthorizedAccess:       {},
	models.EventSuspiciousFormSubmission: {},
	models.EventCredentialViolation:      {},
	models.EventRateLimitExceeded:        {},
	models.EventAdminAccessViolation:     {},
	models.EventDataBreachAttempt:        {},
	models.EventSQLInjectionAttempt:      {},
	models.EventXSSAttempt:               {},
}

// Per-type counts at which a pattern escalates to high severity. Types
// without an entry use defaultSeverityThreshold.
var severityThresholds = map[string]int{
	models.EventFailedLogin:        5,
	models.EventRateLimitExceeded:  3,
	models.EventUnauthorizedAccess: 1,
}

const defaultSeverityThreshold = 3

// Summary is the outcome of one sweep.
type Summary struct {
	EventsAnalyzed       int
	CriticalEvents       int
	HighSeverityPatterns int
	NotificationsSent    int
	AdminsNotified       int

	// Message is set on the no-critical-events path, Warning when
	// there is nobody to notify, Skipped when another invocation holds
	// the window lease.
	Message string
	Warning string
	Skipped bool
}

// Config tunes one Monitor instance.
type Config struct {
	Window            time.Duration
	RepeatIPThreshold int
	MaxFallbackEvents int
}

// Monitor runs the periodic security event sweep: window query,
// pattern analysis, severity classification and admin notification
// fan-out.
type Monitor struct {
	events        EventStore
	notifications NotificationStore
	admins        AdminDirectory
	lease         WindowLease
	logger        *zap.Logger

	window            time.Duration
	repeatIPThreshold int
	maxFallbackEvents int
	clock             func() time.Time
}

func New(events EventStore, notifications NotificationStore, admins AdminDirectory, lease WindowLease, cfg Config, logger *zap.Logger) *Monitor {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.RepeatIPThreshold <= 0 {
		cfg.RepeatIPThreshold = 2
	}
	if cfg.MaxFallbackEvents <= 0 {
		cfg.MaxFallbackEvents = 5
	}
	return &Monitor{
		events:            events,
		notifications:     notifications,
		admins:            admins,
		lease:             lease,
		logger:            logger,
		window:            cfg.Window,
		repeatIPThreshold: cfg.RepeatIPThreshold,
		maxFallbackEvents: cfg.MaxFallbackEvents,
		clock:             time.Now,
	}
}

// Run performs one sweep. Store errors abort the run; the caller maps
// them to a 500. The fan-out is not rolled back on partial failure.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	now := m.clock().UTC()

	if m.lease != nil {
		acquired, err := m.lease.Acquire(ctx, now.Truncate(m.window))
		if err != nil {
			return Summary{}, fmt.Errorf("window lease failed: %w", err)
		}
		if !acquired {
			m.logger.Info("monitoring window already claimed, skipping sweep")
			return Summary{
				Skipped: true,
				Message: "Monitoring already completed for this window",
			}, nil
		}
	}

	m.logger.Info("starting security event monitoring")

	since := now.Add(-m.window)
	recent, err := m.events.RecentEvents(ctx, since)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch security events: %w", err)
	}
	m.logger.Info("fetched recent security events", util.Int("count", len(recent)))

	critical := filterCritical(recent)
	if len(critical) == 0 {
		return Summary{
			EventsAnalyzed: len(recent),
			Message:        "No critical events detected",
		}, nil
	}

	patterns := analyzePatterns(critical, m.repeatIPThreshold)
	high := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Severity == models.SeverityHigh {
			high = append(high, p)
		}
	}
	m.logger.Info("analyzed event patterns",
		util.Int("critical_events", len(critical)),
		util.Int("high_severity_patterns", len(high)))

	adminIDs, err := m.admins.AdminUserIDs(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to enumerate admins: %w", err)
	}
	if len(adminIDs) == 0 {
		m.logger.Warn("no admin users found to notify")
		return Summary{
			EventsAnalyzed: len(recent),
			CriticalEvents: len(critical),
			Warning:        "No admin users to notify",
		}, nil
	}

	notifications := m.buildNotifications(high, critical, adminIDs, now)
	if err := m.notifications.InsertBatch(ctx, notifications); err != nil {
		return Summary{}, fmt.Errorf("failed to insert notifications: %w", err)
	}
	m.logger.Info("created security alert notifications",
		util.Int("count", len(notifications)))

	summary := Summary{
		EventsAnalyzed:       len(recent),
		CriticalEvents:       len(critical),
		HighSeverityPatterns: len(high),
		NotificationsSent:    len(notifications),
		AdminsNotified:       len(adminIDs),
	}

	// Completion record is best-effort; the sweep already succeeded.
	completion := models.SecurityEvent{
		ID:        uuid.NewString(),
		EventType: models.EventMonitoringCompleted,
		Details: map[string]interface{}{
			"events_checked":         summary.EventsAnalyzed,
			"critical_events":        summary.CriticalEvents,
			"high_severity_patterns": summary.HighSeverityPatterns,
			"notifications_sent":     summary.NotificationsSent,
			"admins_notified":        summary.AdminsNotified,
		},
		IPAddress: "system",
		Timestamp: now,
		CreatedAt: now,
	}
	if err := m.events.Append(ctx, completion); err != nil {
		m.logger.Warn("failed to record monitoring completion", util.ErrorField(err))
	}

	return summary, nil
}

func filterCritical(events []models.SecurityEvent) []models.SecurityEvent {
	var out []models.SecurityEvent
	for _, e := range events {
		if _, ok := criticalEventTypes[e.EventType]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (m *Monitor) buildNotifications(high []Pattern, critical []models.SecurityEvent, adminIDs []string, now time.Time) []models.Notification {
	var notifications []models.Notification

	for _, pattern := range high {
		title := notificationTitle(pattern)
		message := m.notificationMessage(pattern)
		metadata := map[string]interface{}{
			"event_type":       pattern.EventType,
			"count":            pattern.Count,
			"severity":         string(pattern.Severity),
			"first_occurrence": pattern.FirstOccurrence.Format(time.RFC3339),
			"last_occurrence":  pattern.LastOccurrence.Format(time.RFC3339),
			"ip_addresses":     pattern.IPAddresses,
		}
		for _, adminID := range adminIDs {
			notifications = append(notifications, models.Notification{
				ID:        uuid.NewString(),
				UserID:    adminID,
				Title:     title,
				Message:   message,
				Type:      models.NotificationTypeSecurityAlert,
				Metadata:  metadata,
				CreatedAt: now,
			})
		}
	}

	// Without a pattern above threshold, alert on the most recent
	// individual events instead. recent is ordered newest first.
	if len(high) == 0 && len(critical) > 0 {
		limit := len(critical)
		if limit > m.maxFallbackEvents {
			limit = m.maxFallbackEvents
		}
		for _, event := range critical[:limit] {
			title := fmt.Sprintf("Security Alert: %s", formatEventType(event.EventType))
			message := fmt.Sprintf("A %s event was detected from IP %s", event.EventType, event.IPAddress)
			metadata := map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.EventType,
				"timestamp":  event.Timestamp.Format(time.RFC3339),
				"ip_address": event.IPAddress,
			}
			for _, adminID := range adminIDs {
				notifications = append(notifications, models.Notification{
					ID:        uuid.NewString(),
					UserID:    adminID,
					Title:     title,
					Message:   message,
					Type:      models.NotificationTypeSecurityAlert,
					Metadata:  metadata,
					CreatedAt: now,
				})
			}
		}
	}

	return notifications
}

func notificationTitle(p Pattern) string {
	if p.Severity == models.SeverityHigh {
		return fmt.Sprintf("🚨 Critical Security Alert: %s", formatEventType(p.EventType))
	}
	return fmt.Sprintf("⚠️ Security Alert: %s", formatEventType(p.EventType))
}

func (m *Monitor) notificationMessage(p Pattern) string {
	ipInfo := ""
	if len(p.SuspiciousIPs) > 0 {
		ipInfo = fmt.Sprintf(" from %d suspicious IP(s)", len(p.SuspiciousIPs))
	}
	return fmt.Sprintf("Detected %d %s event(s)%s in the last %d minutes. Immediate investigation recommended.",
		p.Count, formatEventType(p.EventType), ipInfo, int(m.window.Minutes()))
}
