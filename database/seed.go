package database

import (
	"context"
	"errors"
	"fmt"

	"aceofspace-go/models"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Full access"},
	{Name: models.RoleAgent, Description: "Can list and manage properties"},
	{Name: models.RoleUser, Description: "Can browse and book properties"},
}

// Seed creates the default roles and, when missing, an active super admin.
func Seed(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string, log *zap.Logger) error {
	roles := store.NewRoleStore(db)
	identities := store.NewIdentityStore(db)

	var adminRole *models.Role
	for _, r := range defaultRoles {
		role, created, err := roles.Ensure(ctx, r.Name, r.Description)
		if err != nil {
			return err
		}
		if created {
			log.Info("role created", zap.String("role", role.Name))
		}
		if role.Name == models.RoleAdmin {
			adminRole = role
		}
	}

	email := utils.NormalizeEmail(adminEmail)
	if email == "" {
		return nil
	}
	_, err := identities.FindByEmail(ctx, email)
	if err == nil {
		log.Debug("super admin already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return err
	}
	admin := &models.Identity{
		FirstName:    "Super",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: hash,
		RoleID:       adminRole.ID,
		Active:       true,
	}
	if err := identities.Create(ctx, admin); err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	log.Info("super admin created", zap.String("email", email))
	return nil
}
