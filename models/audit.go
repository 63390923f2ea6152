package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	IdentityID *string   `json:"identity_id" gorm:"column:identity_id;size:36;index"`
	Identity   *Identity `json:"identity,omitempty" gorm:"foreignKey:IdentityID"`
	Action     string    `json:"action" gorm:"not null"`
	Resource   string    `json:"resource" gorm:"not null"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
