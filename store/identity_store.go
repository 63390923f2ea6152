package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aceofspace-go/models"

	"gorm.io/gorm"
)

// IdentityStore is the credential store. Mutations that clear a one-time
// credential are conditional on the credential still being the one the
// caller checked.
type IdentityStore struct {
	db *gorm.DB
}

func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) Create(ctx context.Context, identity *models.Identity) error {
	if err := s.db.WithContext(ctx).Omit("Role").Create(identity).Error; err != nil {
		return fmt.Errorf("create identity: %w", translate(err))
	}
	return nil
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Preload("Role").
		Where("email = ?", strings.ToLower(email)).
		First(&identity).Error
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", translate(err))
	}
	return &identity, nil
}

func (s *IdentityStore) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	if err := s.db.WithContext(ctx).Preload("Role").First(&identity, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find identity %s: %w", id, translate(err))
	}
	return &identity, nil
}

// FindByResetToken loads the identity holding this exact reset token.
func (s *IdentityStore) FindByResetToken(ctx context.Context, email, token string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Preload("Role").
		Where("email = ? AND reset_token = ?", strings.ToLower(email), token).
		First(&identity).Error
	if err != nil {
		return nil, fmt.Errorf("find identity by reset token: %w", translate(err))
	}
	return &identity, nil
}

func (s *IdentityStore) List(ctx context.Context, offset, limit int) ([]models.Identity, int64, error) {
	var (
		identities []models.Identity
		total      int64
	)
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Identity{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count identities: %w", err)
	}
	err := db.Preload("Role").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&identities).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list identities: %w", err)
	}
	return identities, total, nil
}

// SetOTP overwrites any outstanding code.
func (s *IdentityStore) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	return s.update(ctx, s.db.Where("id = ?", id), map[string]interface{}{
		"otp_code":       code,
		"otp_expires_at": expiresAt.UTC(),
	}, ErrNotFound)
}

// ConsumeOTP clears the code pair and activates the identity, provided the
// stored code still equals code and has not expired at now.
func (s *IdentityStore) ConsumeOTP(ctx context.Context, id, code string, now time.Time) error {
	scope := s.db.Where("id = ? AND otp_code = ? AND otp_expires_at >= ?", id, code, now.UTC())
	return s.update(ctx, scope, map[string]interface{}{
		"otp_code":       nil,
		"otp_expires_at": nil,
		"active":         true,
	}, ErrStale)
}

func (s *IdentityStore) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.update(ctx, s.db.Where("id = ?", id), map[string]interface{}{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	}, ErrNotFound)
}

// ConsumeResetToken replaces the password hash and clears the reset pair,
// provided the stored token still equals token.
func (s *IdentityStore) ConsumeResetToken(ctx context.Context, id, token, passwordHash string) error {
	return s.update(ctx, s.db.Where("id = ? AND reset_token = ?", id, token), map[string]interface{}{
		"password_hash":          passwordHash,
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	}, ErrStale)
}

// UpdatePassword swaps the hash only if it is still oldHash.
func (s *IdentityStore) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	return s.update(ctx, s.db.Where("id = ? AND password_hash = ?", id, oldHash), map[string]interface{}{
		"password_hash": newHash,
	}, ErrStale)
}

func (s *IdentityStore) UpdateProfile(ctx context.Context, id, firstName, lastName, mobile string) (*models.Identity, error) {
	err := s.update(ctx, s.db.Where("id = ?", id), map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"mobile":     mobile,
	}, ErrNotFound)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *IdentityStore) update(ctx context.Context, scope *gorm.DB, fields map[string]interface{}, missing error) error {
	result := scope.WithContext(ctx).Model(&models.Identity{}).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update identity: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return missing
	}
	return nil
}
