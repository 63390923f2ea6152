package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"aceofspace-go/models"
	"aceofspace-go/store"
	"aceofspace-go/utils"
)

const OTPLength = 6

// OTPEngine issues and verifies the numeric codes that activate an
// identity. Issuing always replaces the outstanding code.
type OTPEngine struct {
	identities CredentialStore
	ttl        time.Duration
	now        Clock
}

func NewOTPEngine(identities CredentialStore, ttl time.Duration, now Clock) *OTPEngine {
	if now == nil {
		now = time.Now
	}
	return &OTPEngine{identities: identities, ttl: ttl, now: now}
}

// Generate returns a fresh code and its expiry without storing it.
func (e *OTPEngine) Generate() (string, time.Time, error) {
	code, err := utils.RandomDigits(OTPLength)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, e.now().Add(e.ttl), nil
}

// Issue generates a code, stores it on the identity and returns it for
// delivery.
func (e *OTPEngine) Issue(ctx context.Context, identity *models.Identity) (string, error) {
	code, expiresAt, err := e.Generate()
	if err != nil {
		return "", err
	}
	if err := e.identities.SetOTP(ctx, identity.ID, code, expiresAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("store otp: %w", err)
	}
	identity.OTPCode = &code
	identity.OTPExpiresAt = &expiresAt
	return code, nil
}

// Verify checks submitted against the code on record. On success the code
// pair is cleared and the identity activated in one conditional update.
// An expired code is left in place.
func (e *OTPEngine) Verify(ctx context.Context, identity *models.Identity, submitted string) error {
	if identity.OTPCode == nil || identity.OTPExpiresAt == nil {
		return ErrOTPNotIssued
	}
	if e.now().After(*identity.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*identity.OTPCode), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}

	err := e.identities.ConsumeOTP(ctx, identity.ID, submitted, e.now())
	if errors.Is(err, store.ErrStale) {
		// Another caller consumed or replaced the code since we read it, or
		// it expired in between.
		current, ferr := e.identities.FindByID(ctx, identity.ID)
		if ferr != nil || current.OTPCode == nil {
			return ErrOTPNotIssued
		}
		if *current.OTPCode == submitted {
			return ErrOTPExpired
		}
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}

	identity.OTPCode = nil
	identity.OTPExpiresAt = nil
	identity.Active = true
	return nil
}
