package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"security-service/internal/client"
	"security-service/internal/models"
	"security-service/internal/util"
)

const (
	insertEventSQL = `
		INSERT INTO security_events
			(id, event_type, details, ip_address, user_agent, event_bucket, date_bucket, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recentEventsSQL = `
		SELECT id, event_type, details, ip_address, user_agent, event_bucket, timestamp, created_at
		FROM security_events
		WHERE date_bucket >= ? AND created_at >= ?
		ORDER BY created_at DESC`
)

// DayBucketer derives the day partition value written with each row.
type DayBucketer interface {
	DateBucket(t time.Time) string
}

// SecurityEventRepository is the append-only store for security events.
// Rows are never updated or deleted here; retention is a table TTL. The
// table partitions by date_bucket, so window reads prune to the days
// they touch.
type SecurityEventRepository struct {
	client  *client.ClickHouseClient
	buckets DayBucketer
	logger  *zap.Logger
}

func NewSecurityEventRepository(ch *client.ClickHouseClient, buckets DayBucketer, logger *zap.Logger) *SecurityEventRepository {
	return &SecurityEventRepository{
		client:  ch,
		buckets: buckets,
		logger:  logger,
	}
}

// Append inserts one event.
func (r *SecurityEventRepository) Append(ctx context.Context, event models.SecurityEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}

	if err := r.client.Exec(ctx, insertEventSQL,
		event.ID,
		event.EventType,
		string(details),
		event.IPAddress,
		event.UserAgent,
		event.EventBucket,
		r.buckets.DateBucket(event.CreatedAt),
		event.Timestamp,
		event.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}

	r.logger.Debug("security event appended",
		util.String("event_id", event.ID),
		util.String("event_type", event.EventType))
	return nil
}

// RecentEvents returns all events created at or after since, newest
// first.
func (r *SecurityEventRepository) RecentEvents(ctx context.Context, since time.Time) ([]models.SecurityEvent, error) {
	rows, err := r.client.QueryRows(ctx, recentEventsSQL, r.buckets.DateBucket(since), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	var events []models.SecurityEvent
	for rows.Next() {
		var (
			event      models.SecurityEvent
			rawDetails string
			bucket     int32
		)
		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&rawDetails,
			&event.IPAddress,
			&event.UserAgent,
			&bucket,
			&event.Timestamp,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		event.EventBucket = int(bucket)

		if rawDetails != "" {
			if err := json.Unmarshal([]byte(rawDetails), &event.Details); err != nil {
				// A malformed details blob should not hide the event
				r.logger.Warn("undecodable event details",
					util.String("event_id", event.ID),
					util.ErrorField(err))
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read security events: %w", err)
	}
	return events, nil
}
