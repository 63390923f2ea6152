package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aceofspace-go/config"
	"aceofspace-go/database"
	"aceofspace-go/handlers"
	"aceofspace-go/middleware"
	"aceofspace-go/notifier"
	"aceofspace-go/services"
	"aceofspace-go/storage"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	logr, err := utils.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logr.Sync()

	if err := cfg.Validate(); err != nil {
		logr.Fatal("invalid configuration", zap.Error(err))
	}
	for _, w := range cfg.Warnings() {
		logr.Warn(w)
	}

	cipher, err := utils.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		logr.Fatal("failed to initialize encryption", zap.Error(err))
	}

	tokens, err := utils.NewTokenIssuer(cfg.Token.Issuer, cfg.Token.AccessSecret, cfg.Token.RefreshSecret, cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	if err != nil {
		logr.Fatal("failed to initialize token issuer", zap.Error(err))
	}

	gormLevel := logger.Silent
	if cfg.IsDevelopment() {
		gormLevel = logger.Info
	}
	db, err := database.Initialize(cfg.DatabaseURL, gormLevel)
	if err != nil {
		logr.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Seed(ctx, db, cfg.SuperAdminEmail, cfg.SuperAdminPassword, logr); err != nil {
		logr.Fatal("failed to seed database", zap.Error(err))
	}

	files, err := storage.New(ctx, cfg.KYC, logr)
	if err != nil {
		logr.Fatal("failed to initialize document storage", zap.Error(err))
	}

	identities := store.NewIdentityStore(db)
	roles := store.NewRoleStore(db)
	submissions := store.NewKYCStore(db, cipher)
	audit := store.NewAuditStore(db)

	authService := services.NewAuthService(services.AuthDeps{
		Identities: identities,
		Roles:      roles,
		OTP:        services.NewOTPEngine(identities, cfg.OTP.TTL, time.Now),
		Passwords:  services.NewPasswordManager(identities, cfg.OTP.ResetTTL, time.Now),
		Tokens:     tokens,
		Notifier:   notifier.New(cfg.SMTP, cfg.OTP.TTL, logr),
		Audit:      audit,
		ResetURL:   cfg.ResetURL,
	}, logr)
	kycService := services.NewKYCService(submissions, files, cfg.KYC.MaxBytes, audit, time.Now, logr)

	h := handlers.NewHandlers(authService, kycService, audit, cfg, logr)
	router := handlers.NewRouter(h, middleware.NewAuth(authService, logr), logr)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.KYC.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
