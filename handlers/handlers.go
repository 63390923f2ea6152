package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"aceofspace-go/config"
	"aceofspace-go/models"
	"aceofspace-go/services"
	"aceofspace-go/utils"

	"go.uber.org/zap"
)

// AuditLister reads the audit trail for the admin endpoint.
type AuditLister interface {
	List(ctx context.Context, offset, limit int) ([]models.AuditLog, error)
}

type Handlers struct {
	auth   *services.AuthService
	kyc    *services.KYCService
	audit  AuditLister
	config *config.Config
	logger *zap.Logger
}

func NewHandlers(auth *services.AuthService, kyc *services.KYCService, audit AuditLister, cfg *config.Config, log *zap.Logger) *Handlers {
	return &Handlers{
		auth:   auth,
		kyc:    kyc,
		audit:  audit,
		config: cfg,
		logger: log.Named("handlers"),
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "aceofspace-go",
		"version":   "1.0.0",
	})
}

// httpStatus maps a Result onto the HTTP status code sent with it.
func httpStatus(res models.Result) int {
	switch res.Status {
	case models.StatusSuccess:
		return http.StatusOK
	case models.StatusSessionExpired:
		return http.StatusUnauthorized
	}

	switch services.Kind(res.Code) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindExpired:
		return http.StatusGone
	case services.KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handlers) writeResult(w http.ResponseWriter, res models.Result) {
	writeJSON(w, httpStatus(res), res)
}

// decode reads a JSON body into dst and runs struct validation. On failure
// the response has already been written.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeResult(w, models.Fail(string(services.KindValidation), "Invalid request body", err))
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		res := models.Fail(string(services.KindValidation), "Validation failed", err)
		res.Data = utils.FormatValidationError(err)
		h.writeResult(w, res)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
