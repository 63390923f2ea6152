package handlers

import (
	"net/http"

	"aceofspace-go/middleware"
	"aceofspace-go/models"
)

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r)
	h.writeResult(w, h.auth.Profile(r.Context(), identity.ID))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r)

	var req models.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.UpdateProfile(r.Context(), identity.ID, req))
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r)

	var req models.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.ChangePassword(r.Context(), identity.ID, req.OldPassword, req.NewPassword))
}
