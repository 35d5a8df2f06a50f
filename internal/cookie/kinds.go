package cookie

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	VerificationTTL = 10 * time.Minute
	toastTTL        = time.Minute
	csrfTTL         = 24 * time.Hour
)

type Session struct {
	UserID int64 `json:"uid"`
}

// Verification tracks an email code flow between the signup, verify and
// onboarding steps.
type Verification struct {
	Target   string `json:"target"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

type Toast struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func SuccessToast(title, description string) Toast {
	return Toast{Kind: "success", Title: title, Description: description}
}

// SetSession issues the session cookie; remember keeps it across browser restarts.
func (c *Codec) SetSession(w http.ResponseWriter, userID int64, ttl time.Duration, remember bool) error {
	maxAge := 0
	if remember {
		maxAge = int(ttl.Seconds())
	}
	return c.Set(w, SessionName, Session{UserID: userID}, ttl, maxAge)
}

func (c *Codec) ReadSession(r *http.Request) (Session, error) {
	var s Session
	if err := c.Read(r, SessionName, &s); err != nil {
		return Session{}, err
	}
	if s.UserID <= 0 {
		return Session{}, ErrInvalid
	}
	return s, nil
}

func (c *Codec) SetVerification(w http.ResponseWriter, v Verification) error {
	return c.Set(w, VerificationName, v, VerificationTTL, int(VerificationTTL.Seconds()))
}

func (c *Codec) ReadVerification(r *http.Request) (Verification, error) {
	var v Verification
	err := c.Read(r, VerificationName, &v)
	return v, err
}

func (c *Codec) SetToast(w http.ResponseWriter, t Toast) error {
	return c.Set(w, ToastName, t, toastTTL, int(toastTTL.Seconds()))
}

// ConsumeToast returns the pending toast, if any, and clears it.
func (c *Codec) ConsumeToast(w http.ResponseWriter, r *http.Request) *Toast {
	var t Toast
	if err := c.Read(r, ToastName, &t); err != nil {
		return nil
	}
	c.Clear(w, ToastName)
	return &t
}

// CSRFToken returns the request's token, issuing a new cookie when none is valid.
func (c *Codec) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	var token string
	if err := c.Read(r, CSRFName, &token); err == nil && token != "" {
		return token, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	if err := c.Set(w, CSRFName, token, csrfTTL, 0); err != nil {
		return "", err
	}
	return token, nil
}

func (c *Codec) ReadCSRF(r *http.Request) (string, error) {
	var token string
	err := c.Read(r, CSRFName, &token)
	return token, err
}

var themes = map[string]bool{"light": true, "dark": true, "system": true}

// ReadTheme returns the unsigned UI preference, defaulting to "system".
func ReadTheme(r *http.Request) string {
	if ck, err := r.Cookie(ThemeName); err == nil && themes[ck.Value] {
		return ck.Value
	}
	return "system"
}

func ValidTheme(theme string) bool {
	return themes[theme]
}

func SetTheme(w http.ResponseWriter, theme string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeName,
		Value:    theme,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
