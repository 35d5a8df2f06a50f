package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var row user.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("LOWER(email) = LOWER(?)", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

// CreateUser inserts an active user holding the named role.
func (r *Repository) CreateUser(ctx context.Context, u *auth.User, roleName string) (*auth.User, error) {
	row := user.User{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		IsActive:     true,
		EmployeeID:   u.EmployeeID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&user.User{}).Where("LOWER(email) = LOWER(?)", u.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return auth.ErrEmailTaken
		}

		var role user.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			return err
		}
		row.Roles = []user.Role{role}

		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return auth.ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}

// UpsertVerification keeps a single pending code per target and type; a new
// request replaces the previous code.
func (r *Repository) UpsertVerification(ctx context.Context, v auth.Verification) error {
	row := user.Verification{
		Target:    v.Target,
		Type:      v.Type,
		CodeHash:  v.CodeHash,
		ExpiresAt: v.ExpiresAt,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "created_at"}),
	}).Create(&row).Error
}

func (r *Repository) GetVerification(ctx context.Context, target, kind string) (*auth.Verification, error) {
	var row user.Verification
	err := r.db.WithContext(ctx).Where("target = ? AND type = ?", target, kind).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrVerificationNotFound
		}
		return nil, err
	}
	return &auth.Verification{
		Target:    row.Target,
		Type:      row.Type,
		CodeHash:  row.CodeHash,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (r *Repository) DeleteVerification(ctx context.Context, target, kind string) error {
	return r.db.WithContext(ctx).
		Where("target = ? AND type = ?", target, kind).
		Delete(&user.Verification{}).Error
}
