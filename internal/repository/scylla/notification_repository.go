package scylla

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// NotificationRepository persists admin alert notifications. Inserts
// happen one row at a time; Scylla has no multi-partition transaction,
// which matches the no-rollback contract of the monitor fan-out.
type NotificationRepository struct {
	client *ScyllaClient
	logger *zap.Logger
}

func NewNotificationRepository(client *ScyllaClient, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		client: client,
		logger: logger,
	}
}

const (
	insertNotificationCQL = `
		INSERT INTO notifications (id, user_id, title, message, type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	notificationsByUserCQL = `
		SELECT id, user_id, title, message, type, metadata, created_at, read_at
		FROM notifications WHERE user_id = ? LIMIT ?`

	markReadCQL = `UPDATE notifications SET read_at = ? WHERE user_id = ? AND id = ?`
)

// InsertBatch writes every notification. The batch is not atomic; a
// failure aborts the remainder and already written rows stay.
func (r *NotificationRepository) InsertBatch(ctx context.Context, notifications []models.Notification) error {
	for i, n := range notifications {
		metadata, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode notification metadata: %w", err)
		}
		if err := r.client.Session.Query(insertNotificationCQL,
			n.ID, n.UserID, n.Title, n.Message, n.Type, string(metadata), n.CreatedAt,
		).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("failed to insert notification %d of %d: %w", i+1, len(notifications), err)
		}
	}

	r.logger.Debug("notifications inserted", util.Int("count", len(notifications)))
	return nil
}

// ByUser returns the newest notifications for a user.
func (r *NotificationRepository) ByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := r.client.Session.Query(notificationsByUserCQL, userID, limit).WithContext(ctx).Iter()

	var out []models.Notification
	var (
		n           models.Notification
		rawMetadata string
		readAt      time.Time
	)
	for iter.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &rawMetadata, &n.CreatedAt, &readAt) {
		if rawMetadata != "" {
			_ = json.Unmarshal([]byte(rawMetadata), &n.Metadata)
		}
		if !readAt.IsZero() {
			t := readAt
			n.ReadAt = &t
		}
		out = append(out, n)
		n = models.Notification{}
		rawMetadata = ""
		readAt = time.Time{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return out, nil
}

// MarkRead sets read_at; the only mutation notifications support.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) error {
	if err := r.client.Session.Query(markReadCQL, at, userID, notificationID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
