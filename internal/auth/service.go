package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/ratelimit"
)

const codeLength = 6

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrVerificationNotFound = errors.New("verification not found")
)

type Verification struct {
	Target    string
	Type      string
	CodeHash  string
	ExpiresAt time.Time
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*User, error)
	StartVerification(ctx context.Context, dto EmailDTO, kind string) error
	Verify(ctx context.Context, target, kind string, dto CodeDTO) error
	Onboard(ctx context.Context, email string, dto OnboardingDTO) (*User, error)
	ResetPassword(ctx context.Context, email string, dto PasswordDTO) error
}

type RepositoryAPI interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User, roleName string) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpsertVerification(ctx context.Context, v Verification) error
	GetVerification(ctx context.Context, target, kind string) (*Verification, error)
	DeleteVerification(ctx context.Context, target, kind string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceConfig struct {
	BCryptCost  int
	LoginLimit  int
	VerifyLimit int
	CodeTTL     time.Duration
}

type Service struct {
	repo      RepositoryAPI
	limiter   ratelimit.Limiter
	publisher EventPublisher
	cfg       ServiceConfig
	logger    *slog.Logger

	// compared against when the email is unknown so both paths cost one bcrypt
	dummyHash []byte
	now       func() time.Time
	newCode   func() (string, error)
}

func NewService(repo RepositoryAPI, limiter ratelimit.Limiter, publisher EventPublisher, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = cookie.VerificationTTL
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BCryptCost)

	return &Service{
		repo:      repo,
		limiter:   limiter,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		dummyHash: dummy,
		now:       time.Now,
		newCode:   generateCode,
	}
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(dto.Email)
	if d := s.limiter.Allow(ctx, "login:"+email, s.cfg.LoginLimit); !d.Allowed {
		s.logger.Warn("Login: rate limited", "reset_at", d.ResetAt)
		return nil, appErrors.NewTooManyRequestsError("Too many sign-in attempts, try again later")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(dto.Password))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, appErrors.ErrUserInactive
	}
	return user, nil
}

// StartVerification stores a fresh code for the target and publishes it for
// delivery. Reset requests for unknown addresses succeed without sending.
func (s *Service) StartVerification(ctx context.Context, dto EmailDTO, kind string) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	email := normalizeEmail(dto.Email)

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && kind == VerificationOnboarding:
		return appErrors.NewValidationFieldError("email", "An account with this email already exists", appErrors.ErrCodeEmailTaken)
	case errors.Is(err, ErrUserNotFound) && kind == VerificationResetPassword:
		s.logger.Info("StartVerification: reset requested for unknown email")
		return nil
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("find user: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	expiresAt := s.now().Add(s.cfg.CodeTTL)

	err = s.repo.UpsertVerification(ctx, Verification{
		Target:    email,
		Type:      kind,
		CodeHash:  hashCode(code),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("store verification: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.NewVerificationCreatedEvent(email, kind, code, expiresAt)); err != nil {
		s.logger.Error("StartVerification: failed to publish event", "kind", kind, "error", err)
	}
	return nil
}

// Verify consumes the pending code. Wrong, expired and missing codes all
// answer the same error.
func (s *Service) Verify(ctx context.Context, target, kind string, dto CodeDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if d := s.limiter.Allow(ctx, "verify:"+kind+":"+target, s.cfg.VerifyLimit); !d.Allowed {
		s.logger.Warn("Verify: rate limited", "kind", kind, "reset_at", d.ResetAt)
		return appErrors.NewTooManyRequestsError("Too many attempts, request a new code later")
	}

	v, err := s.repo.GetVerification(ctx, target, kind)
	if err != nil {
		if errors.Is(err, ErrVerificationNotFound) {
			return appErrors.ErrInvalidCode
		}
		return fmt.Errorf("load verification: %w", err)
	}
	if !s.now().Before(v.ExpiresAt) {
		return appErrors.ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(v.CodeHash), []byte(hashCode(dto.Code))) != 1 {
		return appErrors.ErrInvalidCode
	}

	if err := s.repo.DeleteVerification(ctx, target, kind); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (s *Service) Onboard(ctx context.Context, email string, dto OnboardingDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cfg.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, &User{
		Email:        normalizeEmail(email),
		Name:         dto.Name,
		PasswordHash: string(hash),
	}, RoleUser)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, appErrors.NewValidationFieldError("email", "An account with this email already exists", appErrors.ErrCodeEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("Onboard: user created", "user_id", user.ID)
	return user, nil
}

func (s *Service) ResetPassword(ctx context.Context, email string, dto PasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return appErrors.NewNotFoundError("Account not found", appErrors.ErrCodeNotFound)
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cfg.BCryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("ResetPassword: password updated", "user_id", user.ID)
	return nil
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
