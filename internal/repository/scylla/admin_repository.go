package scylla

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"security-service/internal/models"
)

// AdminRepository enumerates users holding the admin role; the monitor
// fans alert notifications out to them.
type AdminRepository struct {
	client *ScyllaClient
	logger *zap.Logger
}

func NewAdminRepository(client *ScyllaClient, logger *zap.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
		logger: logger,
	}
}

const adminUserIDsCQL = `SELECT user_id FROM user_roles WHERE role = ?`

// AdminUserIDs returns every user id with the admin role.
func (r *AdminRepository) AdminUserIDs(ctx context.Context) ([]string, error) {
	iter := r.client.Session.Query(adminUserIDsCQL, models.RoleAdmin).WithContext(ctx).Iter()

	var (
		ids []string
		id  string
	)
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to enumerate admin users: %w", err)
	}
	return ids, nil
}
