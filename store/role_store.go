package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aceofspace-go/models"

	"gorm.io/gorm"
)

type RoleStore struct {
	db *gorm.DB
}

func NewRoleStore(db *gorm.DB) *RoleStore {
	return &RoleStore{db: db}
}

// FindByName resolves a role case-insensitively.
func (s *RoleStore) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&role).Error
	if err != nil {
		return nil, fmt.Errorf("find role %q: %w", name, translate(err))
	}
	return &role, nil
}

// Ensure creates the role if no role with that name exists yet and
// reports whether it did.
func (s *RoleStore) Ensure(ctx context.Context, name, description string) (*models.Role, bool, error) {
	role, err := s.FindByName(ctx, name)
	if err == nil {
		return role, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	role = &models.Role{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, false, fmt.Errorf("create role %q: %w", name, translate(err))
	}
	return role, true, nil
}
