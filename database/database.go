package database

import (
	"fmt"

	"aceofspace-go/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// oneActiveKYCIndex is the store-level enforcement point for "at most one
// pending or approved submission per owner".
const oneActiveKYCIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_kyc_one_active_per_owner
ON kyc_submissions(owner_id) WHERE status IN ('pending', 'approved')`

func Initialize(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// sqlite serialises writers anyway, and an in-memory database exists
	// only on the connection that created it.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Foreign keys are off by default in sqlite and the setting is per
	// connection; the pool above holds exactly one.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.Identity{},
		&models.KYCSubmission{},
		&models.AuditLog{},
	)
	if err != nil {
		return nil, err
	}

	if err := db.Exec(oneActiveKYCIndex).Error; err != nil {
		return nil, fmt.Errorf("create kyc uniqueness index: %w", err)
	}

	return db, nil
}
