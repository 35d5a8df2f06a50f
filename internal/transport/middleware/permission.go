package middleware

import (
	"net/http"

	"github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/transport"
)

// RequireRoles admits users holding at least one of roles and puts their id
// in the request context. A missing session redirects to the login form.
func RequireRoles(gate *auth.Gate, base *transport.BaseHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.RequireUserWithRoles(r, roles)
			if err != nil {
				base.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithUserID(r.Context(), user.ID)))
		})
	}
}

// RequirePermission is RequireRoles for an "entity:action:access" permission.
func RequirePermission(gate *auth.Gate, base *transport.BaseHandler, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := gate.RequireUserWithPermission(r, permission)
			if err != nil {
				base.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithUserID(r.Context(), userID)))
		})
	}
}

// RequireSession admits any signed-in active user.
func RequireSession(gate *auth.Gate, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.RequireUser(r)
			if err != nil {
				base.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithUserID(r.Context(), user.ID)))
		})
	}
}
