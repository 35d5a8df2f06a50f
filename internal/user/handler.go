package user

import (
	"context"
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const (
	rolesPath = "/dashboard/settings/roles"
	usersPath = "/dashboard/settings/users"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, q listquery.ListQuery) (listquery.Page[User], error)
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateRoles(ctx context.Context, actorID, userID int64, roleIDs []int64) (*User, error)
	SetActive(ctx context.Context, actorID, userID int64, active bool) (*User, error)
	ListRoles(ctx context.Context, q listquery.ListQuery) (listquery.Page[Role], error)
	RoleOptions(ctx context.Context) ([]RoleOption, error)
	Permissions(ctx context.Context) ([]Permission, error)
	CreateRole(ctx context.Context, dto RoleDTO) (*Role, error)
	UpdateRole(ctx context.Context, id int64, dto RoleDTO) (*Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Handler serves the role and user screens, which the router admits admins
// to, and the signed-in user's own profile.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

type RolesView struct {
	Search      string               `json:"search"`
	Roles       listquery.Page[Role] `json:"roles"`
	Permissions []Permission         `json:"permissions"`
}

type UsersView struct {
	Search string               `json:"search"`
	Users  listquery.Page[User] `json:"users"`
	Roles  []RoleOption         `json:"roles"`
}

// Me shows the signed-in user with their roles and permissions.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := appErrors.UserIDFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, appErrors.ErrNoSession)
		return
	}
	u, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("Me: failed to load user", "user_id", userID, "error", err)
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, u)
}

func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	q := listquery.FromValues(r.URL.Query())
	roles, err := h.Service.ListRoles(r.Context(), q)
	if err != nil {
		h.Logger.Error("Roles: failed to list roles", "error", err)
		h.HandleError(w, r, err)
		return
	}
	permissions, err := h.Service.Permissions(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, RolesView{Search: q.Search, Roles: roles, Permissions: permissions})
}

func (h *Handler) RoleEditor(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	cmd, err := decodeRoleCommand(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var toast cookie.Toast
	switch cmd := cmd.(type) {
	case addRoleCommand:
		role, err := h.Service.CreateRole(r.Context(), cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Role added", role.Name)
	case editRoleCommand:
		role, err := h.Service.UpdateRole(r.Context(), cmd.id, cmd.dto)
		if err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Role updated", role.Name)
	case deleteRoleCommand:
		if err := h.Service.DeleteRole(r.Context(), cmd.id); err != nil {
			h.HandleError(w, r, err)
			return
		}
		toast = cookie.SuccessToast("Role deleted", "")
	}
	h.RedirectWithToast(w, r, rolesPath, toast)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	q := listquery.FromValues(r.URL.Query())
	users, err := h.Service.ListUsers(r.Context(), q)
	if err != nil {
		h.Logger.Error("Users: failed to list users", "error", err)
		h.HandleError(w, r, err)
		return
	}
	roles, err := h.Service.RoleOptions(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteView(w, r, UsersView{Search: q.Search, Users: users, Roles: roles})
}

func (h *Handler) UserEditor(w http.ResponseWriter, r *http.Request) {
	actorID, ok := appErrors.UserIDFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, appErrors.ErrNoSession)
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	cmd, err := decodeUserCommand(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var (
		u     *User
		toast cookie.Toast
	)
	switch cmd := cmd.(type) {
	case updateRolesCommand:
		u, err = h.Service.UpdateRoles(r.Context(), actorID, cmd.id, cmd.roleIDs)
		toast = cookie.SuccessToast("Roles updated", "")
	case setActiveCommand:
		u, err = h.Service.SetActive(r.Context(), actorID, cmd.id, cmd.active)
		toast = cookie.SuccessToast("Account updated", "")
	}
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	toast.Description = u.Email
	h.RedirectWithToast(w, r, usersPath, toast)
}
