package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aceofspace-go/models"
	"aceofspace-go/store"
	"aceofspace-go/utils"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
	resetTokenBytes  = 32
)

func checkPasswordLength(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// PasswordManager hashes passwords and runs the single-use reset token
// lifecycle.
type PasswordManager struct {
	identities CredentialStore
	resetTTL   time.Duration
	now        Clock
}

func NewPasswordManager(identities CredentialStore, resetTTL time.Duration, now Clock) *PasswordManager {
	if now == nil {
		now = time.Now
	}
	return &PasswordManager{identities: identities, resetTTL: resetTTL, now: now}
}

func (m *PasswordManager) Hash(plaintext string) (string, error) {
	return utils.HashPassword(plaintext)
}

func (m *PasswordManager) Verify(plaintext, hash string) bool {
	return utils.CheckPasswordHash(plaintext, hash)
}

// RequestReset stores a new reset token on the identity, replacing any
// earlier one, and returns it for out-of-band delivery.
func (m *PasswordManager) RequestReset(ctx context.Context, identity *models.Identity) (string, error) {
	token, err := utils.RandomToken(resetTokenBytes)
	if err != nil {
		return "", err
	}
	expiresAt := m.now().Add(m.resetTTL)
	if err := m.identities.SetResetToken(ctx, identity.ID, token, expiresAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("store reset token: %w", err)
	}
	identity.ResetToken = &token
	identity.ResetTokenExpiresAt = &expiresAt
	return token, nil
}

// ConsumeReset replaces the password of the identity holding token and
// clears the token so it cannot be replayed.
func (m *PasswordManager) ConsumeReset(ctx context.Context, email, token, newPlaintext string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	identity, err := m.identities.FindByResetToken(ctx, utils.NormalizeEmail(email), token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if identity.ResetTokenExpiresAt == nil || m.now().After(*identity.ResetTokenExpiresAt) {
		return nil, ErrResetExpired
	}
	if err := checkPasswordLength(newPlaintext); err != nil {
		return nil, err
	}

	hash, err := m.Hash(newPlaintext)
	if err != nil {
		return nil, err
	}
	err = m.identities.ConsumeResetToken(ctx, identity.ID, token, hash)
	if errors.Is(err, store.ErrStale) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}

	identity.PasswordHash = hash
	identity.ResetToken = nil
	identity.ResetTokenExpiresAt = nil
	return identity, nil
}

// Change replaces the password after checking the current one.
func (m *PasswordManager) Change(ctx context.Context, identity *models.Identity, oldPlaintext, newPlaintext string) error {
	if err := checkPasswordLength(newPlaintext); err != nil {
		return err
	}
	if !m.Verify(oldPlaintext, identity.PasswordHash) {
		return ErrBadCredentials
	}

	hash, err := m.Hash(newPlaintext)
	if err != nil {
		return err
	}
	err = m.identities.UpdatePassword(ctx, identity.ID, identity.PasswordHash, hash)
	if errors.Is(err, store.ErrStale) {
		return ErrBadCredentials
	}
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	identity.PasswordHash = hash
	return nil
}
