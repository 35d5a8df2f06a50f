package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
)

var ErrUserNotFound = errors.New("user not found")

type GateRepository interface {
	GetUser(ctx context.Context, userID int64) (*User, error)
	UserHasAnyRole(ctx context.Context, userID int64, roles []string) (bool, error)
	UserHasPermission(ctx context.Context, userID int64, perm Permission) (bool, error)
}

// Gate resolves the session on every call and answers role and permission
// checks straight from the database.
type Gate struct {
	repo    GateRepository
	cookies *cookie.Codec
	logger  *slog.Logger
}

func NewGate(repo GateRepository, cookies *cookie.Codec, logger *slog.Logger) *Gate {
	return &Gate{repo: repo, cookies: cookies, logger: logger}
}

func (g *Gate) RequireUserID(r *http.Request) (int64, error) {
	session, err := g.cookies.ReadSession(r)
	if err != nil {
		return 0, appErrors.ErrNoSession
	}
	return session.UserID, nil
}

// RequireUser loads the session user; a deleted or deactivated account counts
// as no session.
func (g *Gate) RequireUser(r *http.Request) (*User, error) {
	userID, err := g.RequireUserID(r)
	if err != nil {
		return nil, err
	}

	user, err := g.repo.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, appErrors.ErrNoSession
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, appErrors.ErrNoSession
	}
	return user, nil
}

func (g *Gate) RequireUserWithRole(r *http.Request, role string) (*User, error) {
	return g.RequireUserWithRoles(r, []string{role})
}

func (g *Gate) RequireUserWithRoles(r *http.Request, roles []string) (*User, error) {
	user, err := g.RequireUser(r)
	if err != nil {
		return nil, err
	}

	ok, err := g.repo.UserHasAnyRole(r.Context(), user.ID, roles)
	if err != nil {
		return nil, err
	}
	if !ok {
		g.logger.Warn("RequireUserWithRoles: access denied", "user_id", user.ID, "required_roles", roles)
		return nil, appErrors.NewForbiddenError("You do not have access to this page", appErrors.ErrCodeMissingRole).
			WithDetails(map[string]interface{}{"required_roles": roles})
	}
	return user, nil
}

// RequireUserWithPermission passes when the user holds the permission under
// any of the listed access levels.
func (g *Gate) RequireUserWithPermission(r *http.Request, permission string) (int64, error) {
	perm, err := ParsePermission(permission)
	if err != nil {
		return 0, err
	}

	userID, err := g.RequireUserID(r)
	if err != nil {
		return 0, err
	}

	ok, err := g.repo.UserHasPermission(r.Context(), userID, perm)
	if err != nil {
		return 0, err
	}
	if !ok {
		g.logger.Warn("RequireUserWithPermission: access denied", "user_id", userID, "required_permission", permission)
		return 0, appErrors.NewForbiddenError("You do not have permission to do this", appErrors.ErrCodeMissingPermission).
			WithDetails(map[string]interface{}{"required_permission": permission})
	}
	return userID, nil
}

func (g *Gate) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	perm, err := ParsePermission(permission)
	if err != nil {
		return false, err
	}
	return g.repo.UserHasPermission(ctx, userID, perm)
}

// RequireScope checks entity:action:own,any and reports whether the user
// reaches every row or only their own.
func (g *Gate) RequireScope(r *http.Request, entity, action string) (Scope, error) {
	userID, err := g.RequireUserWithPermission(r, entity+":"+action+":"+AccessOwn+","+AccessAny)
	if err != nil {
		return Scope{}, err
	}

	anyAccess, err := g.repo.UserHasPermission(r.Context(), userID, Permission{Entity: entity, Action: action, Access: []string{AccessAny}})
	if err != nil {
		return Scope{}, err
	}
	return Scope{UserID: userID, Any: anyAccess}, nil
}
