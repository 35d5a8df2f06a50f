// Package cookie signs and reads the portal's cookies. Every signed cookie is
// an HS256 token; secrets rotate by prepending a new one to the list.
package cookie

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionName      = "session"
	VerificationName = "verification"
	ToastName        = "toast"
	ThemeName        = "theme"
	CSRFName         = "csrf"
)

var (
	ErrMissing = errors.New("cookie missing")
	ErrInvalid = errors.New("cookie invalid")
)

type claims struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
	jwt.RegisteredClaims
}

type Codec struct {
	secrets [][]byte
	secure  bool
	now     func() time.Time
}

// NewCodec signs with secrets[0] and verifies against every secret in order.
// secure sets the Secure attribute, which production deployments need.
func NewCodec(secrets []string, secure bool) (*Codec, error) {
	if len(secrets) == 0 {
		return nil, errors.New("at least one cookie secret is required")
	}
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			return nil, errors.New("cookie secrets must not be empty")
		}
		keys = append(keys, []byte(s))
	}
	return &Codec{secrets: keys, secure: secure, now: time.Now}, nil
}

func (c *Codec) Encode(kind string, data any, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s cookie: %w", kind, err)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Kind: kind,
		Data: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(c.secrets[0])
}

func (c *Codec) Decode(kind, value string, out any) error {
	for _, secret := range c.secrets {
		var cl claims
		token, err := jwt.ParseWithClaims(value, &cl, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
		if err != nil || !token.Valid {
			continue
		}
		if cl.Kind != kind {
			return ErrInvalid
		}
		if err := json.Unmarshal(cl.Data, out); err != nil {
			return ErrInvalid
		}
		return nil
	}
	return ErrInvalid
}

// Set writes a signed cookie. A zero maxAge makes it a browser-session cookie
// while the signed token still expires after ttl.
func (c *Codec) Set(w http.ResponseWriter, name string, data any, ttl time.Duration, maxAge int) error {
	value, err := c.Encode(name, data, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(name, value, maxAge))
	return nil
}

func (c *Codec) Read(r *http.Request, name string, out any) error {
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return ErrMissing
	}
	return c.Decode(name, ck.Value, out)
}

func (c *Codec) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.cookie(name, "", -1))
}

func (c *Codec) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
