package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/pkg/logger"
)

// maxFormMemory bounds the in-memory part of multipart bodies; larger parts spill to disk.
const maxFormMemory = 8 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger  *slog.Logger
	Cookies *cookie.Codec
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, cookies *cookie.Codec) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Cookies: cookies}
}

// View is the envelope every loader responds with.
type View struct {
	Data      interface{}   `json:"data"`
	Toast     *cookie.Toast `json:"toast,omitempty"`
	Theme     string        `json:"theme"`
	CSRFToken string        `json:"csrf_token,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteView answers a loader, consuming any pending toast.
func (h *BaseHandler) WriteView(w http.ResponseWriter, r *http.Request, data interface{}) {
	view := View{
		Data:      data,
		Theme:     cookie.ReadTheme(r),
		CSRFToken: CSRFTokenFromContext(r.Context()),
	}
	if h.Cookies != nil {
		view.Toast = h.Cookies.ConsumeToast(w, r)
	}
	h.WriteJSON(w, http.StatusOK, view)
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, appErrors.Response{Error: &appErrors.AppError{
		Type:       errorTypeFor(status),
		Code:       appErrors.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	}})
}

func errorTypeFor(status int) appErrors.ErrorType {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return appErrors.ErrorTypeValidation
	case http.StatusUnauthorized:
		return appErrors.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return appErrors.ErrorTypeForbidden
	case http.StatusNotFound:
		return appErrors.ErrorTypeNotFound
	case http.StatusConflict:
		return appErrors.ErrorTypeConflict
	case http.StatusTooManyRequests:
		return appErrors.ErrorTypeTooMany
	}
	return appErrors.ErrorTypeInternal
}

func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *appErrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// WriteServerError renders the generic error card; the cause is only logged.
func (h *BaseHandler) WriteServerError(w http.ResponseWriter, err error) {
	h.Logger.Error("unexpected error", "error", err)
	h.WriteAppError(w, appErrors.NewInternalError("Something went wrong", err))
}

// HandleServiceError maps a service error to its typed response.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := appErrors.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}
	h.WriteServerError(w, err)
}

// HandleError is HandleServiceError for page routes: a missing session
// redirects to the login form carrying the current path.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, appErrors.ErrNoSession) {
		http.Redirect(w, r, "/login?redirectTo="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	h.HandleServiceError(w, err)
}

// RedirectWithToast answers a successful action with a 303 and a one-shot toast.
func (h *BaseHandler) RedirectWithToast(w http.ResponseWriter, r *http.Request, url string, toast cookie.Toast) {
	if h.Cookies != nil {
		if err := h.Cookies.SetToast(w, toast); err != nil {
			h.Logger.Warn("RedirectWithToast: failed to set toast", "error", err)
		}
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ParseForm reads url-encoded and multipart bodies alike.
func (h *BaseHandler) ParseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return appErrors.NewValidationError("Malformed form body", appErrors.ErrCodeValidationFailed).WithCause(err)
		}
		return nil
	}
	return appErrors.NewValidationError("Malformed form body", appErrors.ErrCodeValidationFailed).WithCause(err)
}

// SafeRedirect keeps redirects on this host; anything else becomes fallback.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// PathID parses a numeric route parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidationError("Invalid id", appErrors.ErrCodeInvalidID)
	}
	return id, nil
}
