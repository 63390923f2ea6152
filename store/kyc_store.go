package store

import (
	"context"
	"fmt"
	"time"

	"aceofspace-go/models"
	"aceofspace-go/utils"

	"gorm.io/gorm"
)

var activeStatuses = []models.KYCStatus{models.KYCPending, models.KYCApproved}

// KYCStore persists submissions. A partial unique index on owner_id over
// pending/approved rows backs the one-active-submission rule; see
// database.Initialize.
type KYCStore struct {
	db     *gorm.DB
	cipher *utils.FieldCipher
}

func NewKYCStore(db *gorm.DB, cipher *utils.FieldCipher) *KYCStore {
	return &KYCStore{db: db, cipher: cipher}
}

// Create inserts a submission and returns ErrConflict if the owner already
// holds an active one.
func (s *KYCStore) Create(ctx context.Context, sub *models.KYCSubmission) error {
	plain := sub.DocumentNumber
	encrypted, err := s.cipher.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("encrypt document number: %w", err)
	}

	sub.DocumentNumber = encrypted
	err = s.db.WithContext(ctx).Omit("Owner").Create(sub).Error
	sub.DocumentNumber = plain
	if err != nil {
		return fmt.Errorf("create kyc submission: %w", translate(err))
	}
	return nil
}

func (s *KYCStore) HasActive(ctx context.Context, ownerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.KYCSubmission{}).
		Where("owner_id = ? AND status IN ?", ownerID, activeStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count active kyc: %w", err)
	}
	return count > 0, nil
}

func (s *KYCStore) Latest(ctx context.Context, ownerID string) (*models.KYCSubmission, error) {
	var sub models.KYCSubmission
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("latest kyc for %s: %w", ownerID, translate(err))
	}
	return &sub, s.decrypt(&sub)
}

func (s *KYCStore) FindByID(ctx context.Context, id string) (*models.KYCSubmission, error) {
	var sub models.KYCSubmission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find kyc %s: %w", id, translate(err))
	}
	return &sub, s.decrypt(&sub)
}

// ListPending returns pending submissions oldest first with the owner and
// the owner's role attached.
func (s *KYCStore) ListPending(ctx context.Context) ([]models.KYCSubmission, error) {
	var subs []models.KYCSubmission
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Owner.Role").
		Where("status = ?", models.KYCPending).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list pending kyc: %w", err)
	}
	for i := range subs {
		if err := s.decrypt(&subs[i]); err != nil {
			return nil, err
		}
	}
	return subs, nil
}

// Adjudicate moves a pending submission to a terminal status. It returns
// ErrNotFound for an unknown id and ErrStale when the submission is no
// longer pending.
func (s *KYCStore) Adjudicate(ctx context.Context, id string, status models.KYCStatus, remark *string, reviewer string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.KYCSubmission{}).
		Where("id = ? AND status = ?", id, models.KYCPending).
		Updates(map[string]interface{}{
			"status":      status,
			"remark":      remark,
			"reviewed_by": reviewer,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return fmt.Errorf("adjudicate kyc %s: %w", id, translate(result.Error))
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.KYCSubmission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("adjudicate kyc %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStale
}

func (s *KYCStore) decrypt(sub *models.KYCSubmission) error {
	plain, err := s.cipher.Decrypt(sub.DocumentNumber)
	if err != nil {
		return fmt.Errorf("decrypt document number of %s: %w", sub.ID, err)
	}
	sub.DocumentNumber = plain
	if sub.Owner != nil {
		sub.Owner.PasswordHash = ""
	}
	return nil
}
