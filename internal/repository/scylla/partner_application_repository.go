package scylla

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"security-service/internal/models"
	"security-service/internal/util"
)

// PartnerApplicationRepository stores partnership intake submissions.
type PartnerApplicationRepository struct {
	client *ScyllaClient
	logger *zap.Logger
}

func NewPartnerApplicationRepository(client *ScyllaClient, logger *zap.Logger) *PartnerApplicationRepository {
	return &PartnerApplicationRepository{
		client: client,
		logger: logger,
	}
}

const (
	insertApplicationCQL = `
		INSERT INTO partner_applications
			(id, first_name, last_name, email, phone, company, country,
			 partner_type, experience, goals, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	applicationByIDCQL = `
		SELECT id, first_name, last_name, email, phone, company, country,
		       partner_type, experience, goals, ip_address, user_agent, created_at
		FROM partner_applications WHERE id = ?`
)

// Insert persists one application.
func (r *PartnerApplicationRepository) Insert(ctx context.Context, app *models.PartnerApplication) error {
	if err := r.client.Session.Query(insertApplicationCQL,
		app.ID, app.FirstName, app.LastName, app.Email, app.Phone,
		app.Company, app.Country, string(app.PartnerType), app.Experience,
		app.Goals, app.IPAddress, app.UserAgent, app.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to insert partner application: %w", err)
	}

	r.logger.Info("partner application saved",
		util.String("application_id", app.ID),
		util.String("partner_type", string(app.PartnerType)))
	return nil
}

// ByID looks up one application.
func (r *PartnerApplicationRepository) ByID(ctx context.Context, id string) (*models.PartnerApplication, error) {
	var (
		app         models.PartnerApplication
		partnerType string
	)
	if err := r.client.Session.Query(applicationByIDCQL, id).WithContext(ctx).Scan(
		&app.ID, &app.FirstName, &app.LastName, &app.Email, &app.Phone,
		&app.Company, &app.Country, &partnerType, &app.Experience,
		&app.Goals, &app.IPAddress, &app.UserAgent, &app.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to load partner application: %w", err)
	}
	app.PartnerType = models.PartnerType(partnerType)
	return &app, nil
}
