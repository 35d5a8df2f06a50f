package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/user"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) ListUsers(ctx context.Context, q listquery.ListQuery) (listquery.Page[user.User], error) {
	page, err := listquery.FilterAndPaginate[userDatamodel.User](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"name", "email"},
		Order:        "users.name ASC",
		Preloads:     []string{"Roles.Permissions"},
	})
	if err != nil {
		return listquery.Page[user.User]{}, err
	}
	return listquery.Map(page, user.FromDataModel), nil
}

func (r *UserRepository) GetUser(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Preload("Roles.Permissions").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	u := user.FromDataModel(row)
	return &u, nil
}

func (r *UserRepository) SetUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		association := tx.Model(&userDatamodel.User{ID: userID}).Association("Roles")
		if len(roleIDs) == 0 {
			return association.Clear()
		}
		var roles []userDatamodel.Role
		if err := tx.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return err
		}
		return association.Replace(roles)
	})
}

func (r *UserRepository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", userID).Update("is_active", active).Error
}

func (r *UserRepository) ListRoles(ctx context.Context, q listquery.ListQuery) (listquery.Page[user.Role], error) {
	page, err := listquery.FilterAndPaginate[userDatamodel.Role](ctx, r.db, q, listquery.Options{
		SearchFields: []string{"name", "description"},
		Order:        "roles.name ASC",
		Preloads:     []string{"Permissions"},
	})
	if err != nil {
		return listquery.Page[user.Role]{}, err
	}
	return listquery.Map(page, user.RoleFromDataModel), nil
}

func (r *UserRepository) GetRole(ctx context.Context, id int64) (*user.Role, error) {
	var row userDatamodel.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrRoleNotFound
		}
		return nil, err
	}
	role := user.RoleFromDataModel(row)
	return &role, nil
}

func (r *UserRepository) RoleIDByName(ctx context.Context, name string) (int64, error) {
	var row userDatamodel.Role
	if err := r.db.WithContext(ctx).Select("id").Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, user.ErrRoleNotFound
		}
		return 0, err
	}
	return row.ID, nil
}

func (r *UserRepository) RoleNameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.Role{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) SaveRole(ctx context.Context, role *user.Role, permissionIDs []int64) error {
	row := &userDatamodel.Role{ID: role.ID, Name: role.Name, Description: role.Description, CreatedAt: role.CreatedAt}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permissions").Save(row).Error; err != nil {
			return err
		}
		association := tx.Model(row).Association("Permissions")
		if len(permissionIDs) == 0 {
			return association.Clear()
		}
		var perms []userDatamodel.Permission
		if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return err
		}
		return association.Replace(perms)
	})
	if err != nil {
		return err
	}
	role.ID = row.ID
	role.CreatedAt = row.CreatedAt
	role.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &userDatamodel.Role{ID: id}
		if err := tx.Model(row).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(row).Error
	})
}

func (r *UserRepository) RoleMembers(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("user_roles").Where("role_id = ?", id).Count(&n).Error
	return n, err
}

func (r *UserRepository) RoleOptions(ctx context.Context) ([]user.RoleOption, error) {
	var options []user.RoleOption
	err := r.db.WithContext(ctx).Model(&userDatamodel.Role{}).Select("id, name").Order("name ASC").Scan(&options).Error
	return options, err
}

func (r *UserRepository) CountRoles(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.Role{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *UserRepository) Permissions(ctx context.Context) ([]user.Permission, error) {
	var rows []userDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("entity ASC, action ASC, access ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]user.Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, user.PermissionFromDataModel(row))
	}
	return out, nil
}

func (r *UserRepository) CountPermissions(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.Permission{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}
