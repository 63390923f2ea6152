package handlers

import (
	"net/http"

	"aceofspace-go/models"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.auth.Register(r.Context(), req)
	if res.OK() {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	h.writeResult(w, res)
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.VerifyOTP(r.Context(), req.Email, req.OTP))
}

func (h *Handlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.ResendOTP(r.Context(), req.Email))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.Login(r.Context(), req.Email, req.Password))
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.Refresh(r.Context(), req.RefreshToken))
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.ForgotPassword(r.Context(), req.Email))
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.auth.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword))
}
