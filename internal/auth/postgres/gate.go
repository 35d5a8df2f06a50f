package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/user"
)

type GateRepository struct {
	db *gorm.DB
}

func NewGateRepository(db *gorm.DB) auth.GateRepository {
	return &GateRepository{db: db}
}

func (r *GateRepository) GetUser(ctx context.Context, userID int64) (*auth.User, error) {
	var row user.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&row, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *GateRepository) UserHasAnyRole(ctx context.Context, userID int64, roles []string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var n int64
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name IN ?", userID, roles).
		Count(&n).Error
	return n > 0, err
}

func (r *GateRepository) UserHasPermission(ctx context.Context, userID int64, perm auth.Permission) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN role_permissions ON role_permissions.role_id = user_roles.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("user_roles.user_id = ?", userID).
		Where("permissions.entity = ? AND permissions.action = ? AND permissions.access IN ?", perm.Entity, perm.Action, perm.Access).
		Count(&n).Error
	return n > 0, err
}

func toDomain(row *user.User) *auth.User {
	u := &auth.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		IsActive:     row.IsActive,
		EmployeeID:   row.EmployeeID,
		PasswordHash: row.PasswordHash,
		Roles:        make([]string, 0, len(row.Roles)),
	}
	for _, role := range row.Roles {
		u.Roles = append(u.Roles, role.Name)
	}
	return u
}
