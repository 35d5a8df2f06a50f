package auth

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleHR    = "hr"
	RoleUser  = "user"
)

const (
	ActionCreate  = "create"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"

	AccessOwn = "own"
	AccessAny = "any"
)

const (
	VerificationOnboarding    = "onboarding"
	VerificationResetPassword = "reset-password"
)

type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	IsActive     bool     `json:"is_active"`
	EmployeeID   *int64   `json:"employee_id,omitempty"`
	Roles        []string `json:"roles"`
	PasswordHash string   `json:"-"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Permission is "entity:action:access" where access may list alternatives,
// e.g. "carpass:update:own,any".
type Permission struct {
	Entity string
	Action string
	Access []string
}

var permissionPart = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func ParsePermission(s string) (Permission, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Permission{}, fmt.Errorf("permission %q: want entity:action:access", s)
	}

	p := Permission{Entity: parts[0], Action: parts[1]}
	for _, a := range strings.Split(parts[2], ",") {
		a = strings.TrimSpace(a)
		if a != AccessOwn && a != AccessAny {
			return Permission{}, fmt.Errorf("permission %q: unknown access %q", s, a)
		}
		p.Access = append(p.Access, a)
	}
	if !permissionPart.MatchString(p.Entity) || !permissionPart.MatchString(p.Action) {
		return Permission{}, fmt.Errorf("permission %q: invalid entity or action", s)
	}
	return p, nil
}

// MustParsePermission is for permission literals known at compile time.
func MustParsePermission(s string) Permission {
	p, err := ParsePermission(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Permission) String() string {
	return p.Entity + ":" + p.Action + ":" + strings.Join(p.Access, ",")
}

// Scope is the resolved reach of a user over an entity: every row, or only
// the rows they requested.
type Scope struct {
	UserID int64
	Any    bool
}

// Covers reports whether a row owned by ownerID is within reach.
func (s Scope) Covers(ownerID int64) bool {
	return s.Any || (s.UserID > 0 && s.UserID == ownerID)
}
