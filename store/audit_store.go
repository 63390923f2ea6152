package store

import (
	"context"
	"fmt"

	"aceofspace-go/models"

	"gorm.io/gorm"
)

type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Record(ctx context.Context, identityID *string, action, resource, details string) error {
	entry := models.AuditLog{
		IdentityID: identityID,
		Action:     action,
		Resource:   resource,
		Details:    details,
	}
	if err := s.db.WithContext(ctx).Omit("Identity").Create(&entry).Error; err != nil {
		return fmt.Errorf("record audit %s %s: %w", action, resource, err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, offset, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Preload("Identity").
		Preload("Identity.Role").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
