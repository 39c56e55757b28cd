package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"security-service/internal/models"
	"security-service/internal/security"
	"security-service/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AccountHandler exposes the credential audit surface: storing trading
// account credentials and checking their encryption state. Every call
// is recorded in the access trail and checked against the
// suspicious-activity window.
type AccountHandler struct {
	auditor *security.Auditor
	logger  *zap.Logger
}

func NewAccountHandler(auditor *security.Auditor, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{auditor: auditor, logger: logger}
}

func (h *AccountHandler) RegisterRoutes(router chi.Router) {
	router.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Post("/credentials", h.StoreCredentials)
		r.Get("/encryption-status", h.GetEncryptionStatus)
	})
}

type storeCredentialsRequest struct {
	UserID      string `json:"userId"`
	Credentials string `json:"credentials"`
}

// StoreCredentials encrypts and persists trading credentials for an
// account after re-authorizing ownership.
func (h *AccountHandler) StoreCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	accountID := chi.URLParam(r, "accountID")

	var req storeCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
		return
	}
	if req.UserID == "" || req.Credentials == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Missing required fields"})
		return
	}

	if err := h.auditor.StoreCredentials(ctx, accountID, req.Credentials, req.UserID); err != nil {
		if errors.Is(err, security.ErrUnauthorized) {
			h.respondWithJSON(w, http.StatusForbidden, map[string]interface{}{"error": "Unauthorized"})
			return
		}
		h.logger.Error("Failed to store credentials",
			util.String("account_id", accountID),
			util.ErrorField(err))
		h.respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Failed to store credentials"})
		return
	}

	// The write is already in the trail; flag the user if this pushed
	// them over the access limit.
	h.auditor.DetectSuspiciousActivity(ctx, req.UserID)

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"accountId": accountID,
	})
	h.logger.Info("Credentials stored via HTTP",
		util.String("account_id", accountID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "StoreCredentials"),
	)
}

// GetEncryptionStatus reports whether the stored credentials carry
// ciphertext and a key reference. The read itself is audited.
func (h *AccountHandler) GetEncryptionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "accountID")

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "userId parameter is required"})
		return
	}

	if err := h.auditor.LogCredentialAccess(ctx, accountID, models.CredentialRead, userID); err != nil {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request"})
		return
	}
	h.auditor.DetectSuspiciousActivity(ctx, userID)

	encrypted := h.auditor.VerifyEncryption(ctx, accountID)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": accountID,
		"encrypted": encrypted,
	})
}

// respondWithJSON sends a JSON response
func (h *AccountHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}
