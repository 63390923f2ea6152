package handlers

import (
	"net/http"

	"aceofspace-go/middleware"
	"aceofspace-go/models"
	"aceofspace-go/services"

	"go.uber.org/zap"
)

func (h *Handlers) GetPendingKYC(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.kyc.ListPending(r.Context()))
}

func (h *Handlers) UpdateKYCStatus(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetIdentityFromContext(r)

	var req models.KYCAdjudicationRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.kyc.Adjudicate(r.Context(), admin.ID, req.KYCID, req.Status, req.Remark))
}

func (h *Handlers) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.auth.ListIdentities(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 20)))
}

func (h *Handlers) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, err := h.audit.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("list audit logs", zap.Error(err))
		h.writeResult(w, models.Fail(string(services.KindStorage), "Failed to retrieve audit logs", err))
		return
	}
	h.writeResult(w, models.Success("Audit logs fetched", logs))
}
