package user

import (
	"errors"
	"sort"
	"time"

	"github.com/frahmantamala/staff-management/internal/auth"
	userDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/user"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
)

// User is an account as the access screens show it: its roles and the
// permissions they grant, flattened to "entity:action:access".
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"isActive"`
	EmployeeID  *int64    `json:"employeeId,omitempty"`
	RoleIDs     []int64   `json:"roleIds"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PermissionIDs []int64   `json:"permissionIds"`
	Permissions   []string  `json:"permissions"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoleOption is a role as offered in the user editor.
type RoleOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func permissionName(p userDatamodel.Permission) string {
	return auth.Permission{Entity: p.Entity, Action: p.Action, Access: []string{p.Access}}.String()
}

func PermissionFromDataModel(row userDatamodel.Permission) Permission {
	return Permission{ID: row.ID, Name: permissionName(row), Description: row.Description}
}

func RoleFromDataModel(row userDatamodel.Role) Role {
	r := Role{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		PermissionIDs: make([]int64, 0, len(row.Permissions)),
		Permissions:   make([]string, 0, len(row.Permissions)),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	for _, p := range row.Permissions {
		r.PermissionIDs = append(r.PermissionIDs, p.ID)
		r.Permissions = append(r.Permissions, permissionName(p))
	}
	sort.Strings(r.Permissions)
	return r
}

func FromDataModel(row userDatamodel.User) User {
	u := User{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		IsActive:    row.IsActive,
		EmployeeID:  row.EmployeeID,
		RoleIDs:     make([]int64, 0, len(row.Roles)),
		Roles:       make([]string, 0, len(row.Roles)),
		Permissions: []string{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	seen := make(map[string]bool)
	for _, role := range row.Roles {
		u.RoleIDs = append(u.RoleIDs, role.ID)
		u.Roles = append(u.Roles, role.Name)
		for _, p := range role.Permissions {
			name := permissionName(p)
			if !seen[name] {
				seen[name] = true
				u.Permissions = append(u.Permissions, name)
			}
		}
	}
	sort.Strings(u.Permissions)
	return u
}
