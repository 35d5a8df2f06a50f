package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/listquery"
)

type RepositoryAPI interface {
	ListUsers(ctx context.Context, q listquery.ListQuery) (listquery.Page[User], error)
	GetUser(ctx context.Context, id int64) (*User, error)
	SetUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
	SetUserActive(ctx context.Context, userID int64, active bool) error

	ListRoles(ctx context.Context, q listquery.ListQuery) (listquery.Page[Role], error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	RoleIDByName(ctx context.Context, name string) (int64, error)
	RoleNameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	// SaveRole creates or updates the role and replaces its permission set.
	SaveRole(ctx context.Context, role *Role, permissionIDs []int64) error
	DeleteRole(ctx context.Context, id int64) error
	RoleMembers(ctx context.Context, id int64) (int64, error)
	RoleOptions(ctx context.Context) ([]RoleOption, error)
	CountRoles(ctx context.Context, ids []int64) (int64, error)

	Permissions(ctx context.Context) ([]Permission, error)
	CountPermissions(ctx context.Context, ids []int64) (int64, error)
}

var (
	errUserNotFound = appErrors.NewNotFoundError("User not found", appErrors.ErrCodeNotFound)
	errRoleNotFound = appErrors.NewNotFoundError("Role not found", appErrors.ErrCodeNotFound)
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, q listquery.ListQuery) (listquery.Page[User], error) {
	return s.repo.ListUsers(ctx, q)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateRoles replaces the roles of a user. Admins cannot drop their own
// admin role.
func (s *Service) UpdateRoles(ctx context.Context, actorID, userID int64, roleIDs []int64) (*User, error) {
	if userID <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	roleIDs = unique(roleIDs)
	if len(roleIDs) > 0 {
		n, err := s.repo.CountRoles(ctx, roleIDs)
		if err != nil {
			return nil, err
		}
		if n != int64(len(roleIDs)) {
			return nil, appErrors.NewValidationFieldError("roleIds", "One or more roles do not exist", appErrors.ErrCodeNotFound)
		}
	}

	if userID == actorID {
		if err := s.ensureKeepsAdmin(ctx, roleIDs); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetUserRoles(ctx, userID, roleIDs); err != nil {
		s.logger.Error("UpdateRoles: failed to set roles", "user_id", userID, "error", err)
		return nil, fmt.Errorf("update user roles: %w", err)
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user roles updated", "user_id", userID, "roles", u.Roles, "actor_id", actorID)
	return u, nil
}

func (s *Service) ensureKeepsAdmin(ctx context.Context, roleIDs []int64) error {
	adminID, err := s.repo.RoleIDByName(ctx, auth.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil
		}
		return err
	}
	for _, id := range roleIDs {
		if id == adminID {
			return nil
		}
	}
	return appErrors.NewValidationFieldError("roleIds", "You cannot remove your own admin role", appErrors.ErrCodeProtectedRole)
}

func (s *Service) SetActive(ctx context.Context, actorID, userID int64, active bool) (*User, error) {
	if userID <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	if userID == actorID && !active {
		return nil, appErrors.NewValidationFieldError("active", "You cannot deactivate your own account", appErrors.ErrCodeValidationFailed)
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.SetUserActive(ctx, userID, active); err != nil {
		s.logger.Error("SetActive: failed to update user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("set user active: %w", err)
	}
	s.logger.Info("user activation changed", "user_id", userID, "active", active, "actor_id", actorID)
	return s.GetUser(ctx, userID)
}

func (s *Service) ListRoles(ctx context.Context, q listquery.ListQuery) (listquery.Page[Role], error) {
	return s.repo.ListRoles(ctx, q)
}

func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	r, err := s.repo.GetRole(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, errRoleNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) RoleOptions(ctx context.Context) ([]RoleOption, error) {
	return s.repo.RoleOptions(ctx)
}

func (s *Service) Permissions(ctx context.Context) ([]Permission, error) {
	return s.repo.Permissions(ctx)
}

func (s *Service) CreateRole(ctx context.Context, dto RoleDTO) (*Role, error) {
	if err := s.validateRole(ctx, dto, 0); err != nil {
		return nil, err
	}
	role := &Role{Name: dto.Name, Description: dto.Description}
	if err := s.repo.SaveRole(ctx, role, unique(dto.PermissionIDs)); err != nil {
		s.logger.Error("CreateRole: failed to save role", "name", dto.Name, "error", err)
		return nil, fmt.Errorf("create role: %w", err)
	}
	s.logger.Info("role created", "role_id", role.ID, "name", role.Name)
	return s.GetRole(ctx, role.ID)
}

func (s *Service) UpdateRole(ctx context.Context, id int64, dto RoleDTO) (*Role, error) {
	if id <= 0 {
		return nil, appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == auth.RoleAdmin && dto.Name != auth.RoleAdmin {
		return nil, appErrors.NewValidationFieldError("name", "The admin role cannot be renamed", appErrors.ErrCodeProtectedRole)
	}
	if err := s.validateRole(ctx, dto, id); err != nil {
		return nil, err
	}

	role.Name = dto.Name
	role.Description = dto.Description
	if err := s.repo.SaveRole(ctx, role, unique(dto.PermissionIDs)); err != nil {
		s.logger.Error("UpdateRole: failed to save role", "role_id", id, "error", err)
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetRole(ctx, id)
}

// DeleteRole refuses the admin role and any role still assigned to users.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.NewValidationFieldError("id", "id is required", appErrors.ErrCodeInvalidID)
	}
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == auth.RoleAdmin {
		return appErrors.NewValidationError("The admin role cannot be deleted", appErrors.ErrCodeProtectedRole)
	}
	members, err := s.repo.RoleMembers(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return appErrors.NewConflictError(fmt.Sprintf("Role %q is assigned to %d user(s)", role.Name, members), appErrors.ErrCodeRoleInUse)
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		s.logger.Error("DeleteRole: failed to delete role", "role_id", id, "error", err)
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (s *Service) validateRole(ctx context.Context, dto RoleDTO, exceptID int64) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	taken, err := s.repo.RoleNameTaken(ctx, dto.Name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewValidationFieldError("name", fmt.Sprintf("Role %q already exists", dto.Name), appErrors.ErrCodeDuplicateName)
	}
	ids := unique(dto.PermissionIDs)
	if len(ids) > 0 {
		n, err := s.repo.CountPermissions(ctx, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return appErrors.NewValidationFieldError("permissionIds", "One or more permissions do not exist", appErrors.ErrCodeNotFound)
		}
	}
	return nil
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
