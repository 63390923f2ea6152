// Package services holds the identity verification and credential issuance
// engine: OTP issue and verification, password and reset-token handling,
// session tokens, the registration/login flow and KYC review.
package services

import (
	"context"
	"time"

	"aceofspace-go/models"

	"go.uber.org/zap"
)

// Clock returns the current time. Tests substitute a controllable one.
type Clock func() time.Time

type CredentialStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	FindByResetToken(ctx context.Context, email, token string) (*models.Identity, error)
	List(ctx context.Context, offset, limit int) ([]models.Identity, int64, error)
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, id, code string, now time.Time) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string) error
	UpdatePassword(ctx context.Context, id, oldHash, newHash string) error
	UpdateProfile(ctx context.Context, id, firstName, lastName, mobile string) (*models.Identity, error)
}

type RoleResolver interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

type KYCRepository interface {
	Create(ctx context.Context, sub *models.KYCSubmission) error
	HasActive(ctx context.Context, ownerID string) (bool, error)
	Latest(ctx context.Context, ownerID string) (*models.KYCSubmission, error)
	FindByID(ctx context.Context, id string) (*models.KYCSubmission, error)
	ListPending(ctx context.Context) ([]models.KYCSubmission, error)
	Adjudicate(ctx context.Context, id string, status models.KYCStatus, remark *string, reviewer string, at time.Time) error
}

type AuditRecorder interface {
	Record(ctx context.Context, identityID *string, action, resource, details string) error
}

// auditor records audit entries without letting their failure affect the
// operation being audited.
type auditor struct {
	recorder AuditRecorder
	logger   *zap.Logger
}

func (a auditor) record(ctx context.Context, identityID string, action, resource, details string) {
	if a.recorder == nil {
		return
	}
	var id *string
	if identityID != "" {
		id = &identityID
	}
	if err := a.recorder.Record(ctx, id, action, resource, details); err != nil {
		a.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
