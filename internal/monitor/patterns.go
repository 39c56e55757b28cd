package monitor

import (
	"strings"
	"time"

	"security-service/internal/models"
)

// Pattern aggregates critical events of one type inside the window.
type Pattern struct {
	EventType       string
	Count           int
	Severity        models.Severity
	FirstOccurrence time.Time
	LastOccurrence  time.Time
	IPAddresses     []string
	SuspiciousIPs   []string
}

// analyzePatterns groups events by type, in first-seen order, and
// classifies each group. Events arrive newest first, so the first
// event in a group is its last occurrence.
func analyzePatterns(events []models.SecurityEvent, repeatIPThreshold int) []Pattern {
	groups := make(map[string][]models.SecurityEvent)
	var order []string
	for _, e := range events {
		if _, seen := groups[e.EventType]; !seen {
			order = append(order, e.EventType)
		}
		groups[e.EventType] = append(groups[e.EventType], e)
	}

	patterns := make([]Pattern, 0, len(order))
	for _, eventType := range order {
		group := groups[eventType]

		ipCounts := make(map[string]int)
		var ips []string
		for _, e := range group {
			ip := e.IPAddress
			if ip == "" {
				ip = "unknown"
			}
			if ipCounts[ip] == 0 {
				ips = append(ips, ip)
			}
			ipCounts[ip]++
		}
		var suspicious []string
		for _, ip := range ips {
			if ipCounts[ip] >= repeatIPThreshold {
				suspicious = append(suspicious, ip)
			}
		}

		severity := models.SeverityMedium
		threshold, ok := severityThresholds[eventType]
		if !ok {
			threshold = defaultSeverityThreshold
		}
		if len(group) >= threshold || len(suspicious) > 0 {
			severity = models.SeverityHigh
		}

		patterns = append(patterns, Pattern{
			EventType:       eventType,
			Count:           len(group),
			Severity:        severity,
			FirstOccurrence: group[len(group)-1].Timestamp,
			LastOccurrence:  group[0].Timestamp,
			IPAddresses:     ips,
			SuspiciousIPs:   suspicious,
		})
	}
	return patterns
}

// formatEventType turns failed_login into "Failed Login".
func formatEventType(eventType string) string {
	words := strings.Split(eventType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
