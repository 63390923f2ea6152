package handlers

import (
	"net/http"

	"aceofspace-go/middleware"
	"aceofspace-go/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires every route. Uploaded documents on disk are served under
// the configured URL prefix.
func NewRouter(h *Handlers, auth *middleware.Auth, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.CORS)
	router.Use(middleware.RequestLog(log))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	public := api.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/verify-otp", h.VerifyOTP).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/resend-otp", h.ResendOTP).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/forgot-password", h.ForgotPassword).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/reset-password", h.ResetPassword).Methods(http.MethodPost, http.MethodOptions)

	protected := api.PathPrefix("/user").Subrouter()
	protected.Use(auth.JWTAuth)
	protected.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/change-password", h.ChangePassword).Methods(http.MethodPost)

	kyc := api.PathPrefix("/kyc").Subrouter()
	kyc.Use(auth.JWTAuth)
	kyc.HandleFunc("/upload", h.UploadKYC).Methods(http.MethodPost)
	kyc.HandleFunc("/status", h.GetKYCStatus).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.JWTAuth)
	admin.Use(auth.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/kyc/pending", h.GetPendingKYC).Methods(http.MethodGet)
	admin.HandleFunc("/kyc/status", h.UpdateKYCStatus).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.GetAllUsers).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", h.GetAuditLogs).Methods(http.MethodGet)

	if h.config.KYC.StorageDriver == "disk" {
		prefix := h.config.KYC.URLPrefix + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(h.config.KYC.UploadDir))))
	}

	return router
}
