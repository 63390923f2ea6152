package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocNationalID     DocumentType = "national_id"
	DocTaxID          DocumentType = "tax_id"
	DocPassport       DocumentType = "passport"
	DocDrivingLicense DocumentType = "driving_license"
)

// DocumentTypes is the closed set accepted at intake.
var DocumentTypes = []DocumentType{DocNationalID, DocTaxID, DocPassport, DocDrivingLicense}

// FileCount is how many files a document of this type is submitted as.
// The driving license is photographed front and back.
func (d DocumentType) FileCount() int {
	if d == DocDrivingLicense {
		return 2
	}
	return 1
}

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// Terminal reports whether no further adjudication is allowed.
func (s KYCStatus) Terminal() bool {
	return s == KYCApproved || s == KYCRejected
}

// KYCSubmission is one uploaded identity document. DocumentNumber is held
// encrypted in the table and decrypted by the store on read.
type KYCSubmission struct {
	ID             string       `json:"id" gorm:"primaryKey;size:36"`
	OwnerID        string       `json:"owner_id" gorm:"column:owner_id;size:36;not null;index"`
	Owner          *Identity    `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	DocumentType   DocumentType `json:"document_type" gorm:"not null"`
	DocumentNumber string       `json:"document_number" gorm:"not null"`
	DocumentFiles  []string     `json:"document_files" gorm:"serializer:json;not null"`
	Status         KYCStatus    `json:"status" gorm:"not null;default:pending;index"`
	Remark         *string      `json:"remark"`
	ReviewedBy     *string      `json:"reviewed_by,omitempty" gorm:"size:36"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (k *KYCSubmission) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

type KYCAdjudicationRequest struct {
	KYCID  string `json:"kyc_id" validate:"required"`
	Status string `json:"status" validate:"required"`
	Remark string `json:"remark"`
}

type KYCStatusResponse struct {
	Status         string     `json:"status"`
	DocumentType   string     `json:"document_type,omitempty"`
	SubmissionDate *time.Time `json:"submission_date,omitempty"`
	Remark         *string    `json:"remark,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

func (KYCSubmission) TableName() string {
	return "kyc_submissions"
}
