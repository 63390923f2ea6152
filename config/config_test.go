package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OTP_TTL", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.ResetTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Token.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.KYC.MaxBytes)
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Warnings())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("MINIO_USE_SSL", "true")
	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.OTP.TTL)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.KYC.Minio.UseSSL)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.EncryptionKey = "short"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Token.RefreshSecret = cfg.Token.AccessSecret
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.KYC.StorageDriver = "ftp"
	assert.Error(t, cfg.Validate())
}
