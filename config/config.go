package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	fallbackAccessSecret  = "your-access-secret-change-in-production"
	fallbackRefreshSecret = "your-refresh-secret-change-in-production"
	fallbackAdminPassword = "Admin@123"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string
	LogLevel    string

	EncryptionKey string

	Token TokenConfig
	OTP   OTPConfig
	SMTP  SMTPConfig
	KYC   KYCConfig

	SuperAdminEmail    string
	SuperAdminPassword string
	ResetURL           string
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type OTPConfig struct {
	TTL      time.Duration
	ResetTTL time.Duration
}

type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	Timeout       time.Duration
	RatePerSecond float64
}

type KYCConfig struct {
	StorageDriver string
	UploadDir     string
	URLPrefix     string
	MaxBytes      int64
	Minio         MinioConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() *Config {
	return &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "aceofspace.db"),
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "AceOfSpaceKYC2025SecureKey123456"),
		Token: TokenConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", fallbackAccessSecret),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", fallbackRefreshSecret),
			AccessTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
			RefreshTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "aceofspace-go"),
		},
		OTP: OTPConfig{
			TTL:      getEnvDuration("OTP_TTL", 5*time.Minute),
			ResetTTL: getEnvDuration("RESET_TOKEN_TTL", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvInt("SMTP_PORT", 587),
			Username:      getEnv("SMTP_USERNAME", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			From:          getEnv("SMTP_FROM", "AceOfSpace <noreply@aceofspace.local>"),
			Timeout:       getEnvDuration("MAIL_TIMEOUT", 10*time.Second),
			RatePerSecond: getEnvFloat("MAIL_RATE_PER_SECOND", 5),
		},
		KYC: KYCConfig{
			StorageDriver: getEnv("STORAGE_DRIVER", "disk"),
			UploadDir:     getEnv("UPLOAD_DIR", "assets/uploads/kyc"),
			URLPrefix:     getEnv("UPLOAD_URL_PREFIX", "/uploads/kyc"),
			MaxBytes:      int64(getEnvInt("KYC_MAX_BYTES", 5*1024*1024)),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "kyc-documents"),
				UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			},
		},
		SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", "admin@example.com"),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", fallbackAdminPassword),
		ResetURL:           getEnv("RESET_URL", "http://localhost:3000/reset-password"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 characters, got %d", len(c.EncryptionKey))
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.OTP.TTL <= 0 || c.OTP.ResetTTL <= 0 {
		return fmt.Errorf("OTP_TTL and RESET_TOKEN_TTL must be positive")
	}
	if c.KYC.MaxBytes <= 0 {
		return fmt.Errorf("KYC_MAX_BYTES must be positive")
	}
	switch c.KYC.StorageDriver {
	case "disk", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.KYC.StorageDriver)
	}
	return nil
}

// Warnings lists deployment hazards that do not stop startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Token.AccessSecret == fallbackAccessSecret || c.Token.RefreshSecret == fallbackRefreshSecret {
		warnings = append(warnings, "JWT secrets are using the hardcoded fallback")
	}
	if len(c.Token.AccessSecret) < 32 || len(c.Token.RefreshSecret) < 32 {
		warnings = append(warnings, "JWT secrets should be at least 32 characters")
	}
	if c.Environment == "production" && c.SuperAdminPassword == fallbackAdminPassword {
		warnings = append(warnings, "change SUPER_ADMIN_PASSWORD in production")
	}
	if c.SMTP.Host == "" {
		warnings = append(warnings, "SMTP_HOST not set, mail is written to the log only")
	}
	return warnings
}
