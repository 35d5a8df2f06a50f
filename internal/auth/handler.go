package auth

import (
	"net/http"
	"time"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/transport"
)

const (
	dashboardPath = "/dashboard"
	loginPath     = "/login"
	verifyPath    = "/verify"
)

var errVerificationRequired = appErrors.NewValidationError("Verify your email first", appErrors.ErrCodeInvalidCode)

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Gate       *Gate
	SessionTTL time.Duration
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, gate *Gate, sessionTTL time.Duration) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Gate:        gate,
		SessionTTL:  sessionTTL,
	}
}

type loginView struct {
	RedirectTo string `json:"redirectTo"`
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirectTo := transport.SafeRedirect(r.URL.Query().Get("redirectTo"), dashboardPath)
	if _, err := h.Gate.RequireUserID(r); err == nil {
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
		return
	}
	h.WriteView(w, r, loginView{RedirectTo: redirectTo})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	dto := LoginDTOFromForm(transport.NewFormReader(r))

	user, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	if err := h.Cookies.SetSession(w, user.ID, h.SessionTTL, dto.Remember); err != nil {
		h.WriteServerError(w, err)
		return
	}
	h.Logger.Info("Login: user signed in", "user_id", user.ID)
	h.RedirectWithToast(w, r, transport.SafeRedirect(dto.RedirectTo, dashboardPath), cookie.SuccessToast("Welcome back", user.Name))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w, cookie.SessionName)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.startVerification(w, r, VerificationOnboarding)
}

func (h *Handler) startVerification(w http.ResponseWriter, r *http.Request, kind string) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}
	dto := EmailDTO{Email: normalizeEmail(r.FormValue("email"))}

	if err := h.Service.StartVerification(r.Context(), dto, kind); err != nil {
		h.HandleError(w, r, err)
		return
	}

	if err := h.Cookies.SetVerification(w, cookie.Verification{Target: dto.Email, Type: kind}); err != nil {
		h.WriteServerError(w, err)
		return
	}
	h.RedirectWithToast(w, r, verifyPath, cookie.SuccessToast("Check your email", "We sent you a 6-digit code"))
}

type verifyView struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

func (h *Handler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	v, err := h.Cookies.ReadVerification(r)
	if err != nil {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	h.WriteView(w, r, verifyView{Target: v.Target, Type: v.Type})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}

	v, err := h.Cookies.ReadVerification(r)
	if err != nil {
		h.WriteAppError(w, errVerificationRequired)
		return
	}

	if err := h.Service.Verify(r.Context(), v.Target, v.Type, CodeDTO{Code: r.FormValue("code")}); err != nil {
		h.HandleError(w, r, err)
		return
	}

	v.Verified = true
	if err := h.Cookies.SetVerification(w, v); err != nil {
		h.WriteServerError(w, err)
		return
	}

	next := "/onboarding"
	if v.Type == VerificationResetPassword {
		next = "/reset-password"
	}
	h.RedirectWithToast(w, r, next, cookie.SuccessToast("Email verified", ""))
}

// verified returns the verification cookie when it proves the email for kind.
func (h *Handler) verified(r *http.Request, kind string) (cookie.Verification, bool) {
	v, err := h.Cookies.ReadVerification(r)
	if err != nil || !v.Verified || v.Type != kind {
		return cookie.Verification{}, false
	}
	return v, true
}

func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}

	v, ok := h.verified(r, VerificationOnboarding)
	if !ok {
		h.WriteAppError(w, errVerificationRequired)
		return
	}

	f := transport.NewFormReader(r)
	user, err := h.Service.Onboard(r.Context(), v.Target, OnboardingDTO{
		Name:        f.String("name"),
		PasswordDTO: PasswordDTOFromForm(f),
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.Cookies.Clear(w, cookie.VerificationName)
	if err := h.Cookies.SetSession(w, user.ID, h.SessionTTL, false); err != nil {
		h.WriteServerError(w, err)
		return
	}
	h.RedirectWithToast(w, r, dashboardPath, cookie.SuccessToast("Welcome", user.Name))
}

// ResetPassword requests a code (intent "request") or, once the email is
// verified, sets the new password (intent "set-password").
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}

	switch intent := transport.Intent(r); intent {
	case "request":
		h.startVerification(w, r, VerificationResetPassword)
	case "set-password":
		v, ok := h.verified(r, VerificationResetPassword)
		if !ok {
			h.WriteAppError(w, errVerificationRequired)
			return
		}
		if err := h.Service.ResetPassword(r.Context(), v.Target, PasswordDTOFromForm(transport.NewFormReader(r))); err != nil {
			h.HandleError(w, r, err)
			return
		}
		h.Cookies.Clear(w, cookie.VerificationName)
		h.RedirectWithToast(w, r, loginPath, cookie.SuccessToast("Password updated", "Sign in with your new password"))
	default:
		h.HandleError(w, r, transport.UnknownIntent(intent))
	}
}

func (h *Handler) Theme(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleError(w, r, err)
		return
	}

	theme := r.FormValue("theme")
	if !cookie.ValidTheme(theme) {
		h.WriteAppError(w, appErrors.NewValidationFieldError("theme", "Theme must be light, dark or system", appErrors.ErrCodeValidationFailed))
		return
	}
	cookie.SetTheme(w, theme)
	http.Redirect(w, r, transport.SafeRedirect(r.FormValue("redirectTo"), "/"), http.StatusSeeOther)
}
