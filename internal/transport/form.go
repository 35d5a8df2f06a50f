package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/staff-management/internal"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// FormReader reads typed values from a parsed form, collecting parse
// failures as field errors.
type FormReader struct {
	r    *http.Request
	errs []appErrors.ValidationError
}

func NewFormReader(r *http.Request) *FormReader {
	return &FormReader{r: r}
}

func (f *FormReader) fail(key, message string, code appErrors.ErrorCode) {
	f.errs = append(f.errs, appErrors.ValidationError{Field: key, Message: message, Code: string(code)})
}

func (f *FormReader) String(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

func (f *FormReader) Bool(key string) bool {
	switch strings.ToLower(f.String(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (f *FormReader) Int64(key string) int64 {
	raw := f.String(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f.fail(key, fmt.Sprintf("%s must be a number", key), appErrors.ErrCodeValidationFailed)
		return 0
	}
	return n
}

// OptionalInt64 returns nil for a blank field.
func (f *FormReader) OptionalInt64(key string) *int64 {
	if f.String(key) == "" {
		return nil
	}
	n := f.Int64(key)
	if n == 0 {
		return nil
	}
	return &n
}

func (f *FormReader) Strings(key string) []string {
	var out []string
	for _, v := range f.r.Form[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *FormReader) Int64s(key string) []int64 {
	var out []int64
	for _, raw := range f.Strings(key) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f.fail(key, fmt.Sprintf("%s must contain numbers", key), appErrors.ErrCodeValidationFailed)
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (f *FormReader) Time(key string) time.Time {
	raw := f.String(key)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	f.fail(key, fmt.Sprintf("%s must be a valid date", key), appErrors.ErrCodeInvalidDate)
	return time.Time{}
}

func (f *FormReader) OptionalTime(key string) *time.Time {
	t := f.Time(key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Err returns the collected parse failures, or nil.
func (f *FormReader) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return appErrors.NewValidationError("Validation failed", appErrors.ErrCodeValidationFailed).
		WithDetails(appErrors.ValidationErrors{Errors: f.errs})
}

// Intent is the form's action selector.
func Intent(r *http.Request) string {
	return strings.TrimSpace(r.FormValue("intent"))
}

// UnknownIntent is the error for an intent outside a route's command set.
func UnknownIntent(intent string) error {
	return appErrors.NewValidationFieldError("intent", fmt.Sprintf("unknown intent %q", intent), appErrors.ErrCodeInvalidIntent)
}
