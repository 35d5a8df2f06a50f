package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const (
	CSRFField  = "csrf"
	CSRFHeader = "X-CSRF-Token"
)

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRF issues a signed token cookie on safe requests and requires every other
// request to echo it back in the csrf form field or the X-CSRF-Token header.
func CSRF(codec *cookie.Codec, logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger, codec)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				token, err := codec.CSRFToken(w, r)
				if err != nil {
					base.WriteServerError(w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(transport.ContextWithCSRFToken(r.Context(), token)))
				return
			}

			expected, err := codec.ReadCSRF(r)
			submitted := r.Header.Get(CSRFHeader)
			if submitted == "" {
				if perr := base.ParseForm(r); perr == nil {
					submitted = r.FormValue(CSRFField)
				}
			}

			if err != nil || expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
				logger.Warn("CSRF: token mismatch", "method", r.Method, "path", r.URL.Path)
				base.WriteAppError(w, appErrors.NewForbiddenError("Invalid CSRF token", appErrors.ErrCodeInvalidCSRF))
				return
			}

			next.ServeHTTP(w, r.WithContext(transport.ContextWithCSRFToken(r.Context(), expected)))
		})
	}
}
