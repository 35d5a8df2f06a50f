package middleware

import (
	"log/slog"
	"net/http"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/transport"
)

// HoneypotField is rendered hidden on public forms; people leave it empty.
const HoneypotField = "name__confirm"

func Honeypot(logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger, nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if err := base.ParseForm(r); err != nil {
				base.HandleServiceError(w, err)
				return
			}
			if r.FormValue(HoneypotField) != "" {
				logger.Warn("Honeypot: filled honeypot field", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				base.WriteAppError(w, appErrors.NewValidationError("Form submission rejected", appErrors.ErrCodeBotDetected))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
