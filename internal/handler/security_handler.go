package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"security-service/internal/models"
	"security-service/internal/monitor"
	"security-service/internal/security"
	"security-service/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationStore persists partner applications.
type ApplicationStore interface {
	Insert(ctx context.Context, app *models.PartnerApplication) error
}

// SecurityHandler handles HTTP requests for the security surface:
// monitoring triggers, partner application intake and the validator's
// metrics and report.
type SecurityHandler struct {
	monitor      *monitor.Monitor
	validator    *security.Validator
	applications ApplicationStore
	logger       *zap.Logger
}

func NewSecurityHandler(mon *monitor.Monitor, validator *security.Validator, applications ApplicationStore, logger *zap.Logger) *SecurityHandler {
	return &SecurityHandler{
		monitor:      mon,
		validator:    validator,
		applications: applications,
		logger:       logger,
	}
}

// RegisterRoutes registers the versioned API routes.
func (h *SecurityHandler) RegisterRoutes(router chi.Router) {
	router.Route("/security", func(r chi.Router) {
		r.Get("/metrics", h.GetMetrics)
		r.Get("/report", h.GetReport)
	})
}

// TriggerMonitoring runs one monitoring sweep on demand.
func (h *SecurityHandler) TriggerMonitoring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	summary, err := h.monitor.Run(ctx)
	if err != nil {
		h.logger.Error("Monitoring run failed via HTTP", util.ErrorField(err))
		h.respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.respondWithJSON(w, http.StatusOK, summaryResponse(summary))
	h.logger.Info("Monitoring run triggered via HTTP",
		util.Int("events_analyzed", summary.EventsAnalyzed),
		util.Int("notifications_sent", summary.NotificationsSent),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "TriggerMonitoring"),
	)
}

// summaryResponse maps the three sweep outcomes to their wire shapes.
func summaryResponse(s monitor.Summary) map[string]interface{} {
	if s.Skipped {
		return map[string]interface{}{
			"success": true,
			"message": s.Message,
		}
	}
	if s.Message != "" {
		return map[string]interface{}{
			"success":        true,
			"message":        s.Message,
			"events_checked": s.EventsAnalyzed,
		}
	}
	if s.Warning != "" {
		return map[string]interface{}{
			"success":         true,
			"warning":         s.Warning,
			"critical_events": s.CriticalEvents,
		}
	}
	return map[string]interface{}{
		"success":                true,
		"events_analyzed":        s.EventsAnalyzed,
		"critical_events":        s.CriticalEvents,
		"high_severity_patterns": s.HighSeverityPatterns,
		"notifications_sent":     s.NotificationsSent,
		"admins_notified":        s.AdminsNotified,
	}
}

type partnerApplicationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Country     string `json:"country"`
	PartnerType string `json:"partnerType"`
	Experience  string `json:"experience"`
	Goals       string `json:"goals"`
}

// SubmitPartnerApplication validates and stores a partnership request.
func (h *SecurityHandler) SubmitPartnerApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req partnerApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.PartnerType == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Missing required fields"})
		return
	}

	partnerType := models.PartnerType(req.PartnerType)
	if !partnerType.Valid() {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid partner type"})
		return
	}

	// Every field goes through threat validation first. Detected
	// threats are logged as security events; only critical ones block
	// the submission.
	form := map[string]string{
		"firstName":  req.FirstName,
		"lastName":   req.LastName,
		"email":      req.Email,
		"phone":      req.Phone,
		"company":    req.Company,
		"country":    req.Country,
		"experience": req.Experience,
		"goals":      req.Goals,
	}
	contexts := map[string]string{
		"firstName": security.ContextName,
		"lastName":  security.ContextName,
		"email":     security.ContextEmail,
		"phone":     security.ContextPhone,
	}
	result := h.validator.ValidateForm(ctx, form, contexts)
	if result.Severity == models.SeverityCritical {
		h.logger.Warn("Partner application rejected for critical threats",
			util.Any("threats", result.OverallThreats))
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid input detected"})
		return
	}

	info, _ := security.ClientInfoFromContext(ctx)
	app := &models.PartnerApplication{
		ID:          uuid.NewString(),
		FirstName:   util.SanitizeInput(req.FirstName),
		LastName:    util.SanitizeInput(req.LastName),
		Email:       util.SanitizeInput(req.Email),
		Phone:       util.SanitizeInput(req.Phone),
		Company:     util.SanitizeInput(req.Company),
		Country:     util.SanitizeInput(req.Country),
		PartnerType: partnerType,
		Experience:  util.SanitizeInput(req.Experience),
		Goals:       util.SanitizeInput(req.Goals),
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.applications.Insert(ctx, app); err != nil {
		h.logger.Error("Failed to save partner application", util.ErrorField(err))
		h.respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Failed to save application"})
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Application submitted successfully",
		"applicationId": app.ID,
	})
	h.logger.Info("Partner application submitted via HTTP",
		util.String("application_id", app.ID),
		util.String("partner_type", string(partnerType)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "SubmitPartnerApplication"),
	)
}

// GetMetrics returns the validator's lifetime counters.
func (h *SecurityHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.validator.Metrics())
}

// GetReport returns the validator's risk report.
func (h *SecurityHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.validator.Report())
}

// respondWithJSON sends a JSON response
func (h *SecurityHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}
