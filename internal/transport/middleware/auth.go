package middleware

import (
	"net/http"

	"github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/pkg/logger"
)

// UserContext tags the request logger with the user id the permission gate resolved.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := internal.UserIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "userID", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
