package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/ratelimit"
)

type mockRepository struct {
	users         map[string]*User
	verifications map[string]Verification
	nextID        int64
	err           error
}

func newMockRepository() *mockRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	return &mockRepository{
		users: map[string]*User{
			"user@staff.local":     {ID: 1, Email: "user@staff.local", Name: "User", IsActive: true, PasswordHash: string(hash), Roles: []string{RoleUser}},
			"inactive@staff.local": {ID: 2, Email: "inactive@staff.local", Name: "Old", IsActive: false, PasswordHash: string(hash)},
		},
		verifications: map[string]Verification{},
		nextID:        3,
	}
}

func (m *mockRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) CreateUser(_ context.Context, u *User, roleName string) (*User, error) {
	if _, ok := m.users[u.Email]; ok {
		return nil, ErrEmailTaken
	}
	created := *u
	created.ID = m.nextID
	created.IsActive = true
	created.Roles = []string{roleName}
	m.nextID++
	m.users[u.Email] = &created
	return &created, nil
}

func (m *mockRepository) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func (m *mockRepository) UpsertVerification(_ context.Context, v Verification) error {
	m.verifications[v.Target+"|"+v.Type] = v
	return nil
}

func (m *mockRepository) GetVerification(_ context.Context, target, kind string) (*Verification, error) {
	v, ok := m.verifications[target+"|"+kind]
	if !ok {
		return nil, ErrVerificationNotFound
	}
	return &v, nil
}

func (m *mockRepository) DeleteVerification(_ context.Context, target, kind string) error {
	delete(m.verifications, target+"|"+kind)
	return nil
}

func expectAppError(err error, status int, code appErrors.ErrorCode) {
	appErr, ok := appErrors.IsAppError(err)
	gomega.ExpectWithOffset(1, ok).To(gomega.BeTrue(), "expected AppError, got %v", err)
	gomega.ExpectWithOffset(1, appErr.StatusCode).To(gomega.Equal(status))
	gomega.ExpectWithOffset(1, appErr.Code).To(gomega.Equal(code))
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		ctx       context.Context
		repo      *mockRepository
		publisher *recordingPublisher
		service   *Service
		now       time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		publisher = &recordingPublisher{}
		now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		service = NewService(repo, ratelimit.NewInMemory(time.Minute), publisher, ServiceConfig{
			BCryptCost:  bcrypt.MinCost,
			LoginLimit:  3,
			VerifyLimit: 2,
		}, testLogger)
		service.now = func() time.Time { return now }
		service.newCode = func() (string, error) { return "123456", nil }
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns the user for valid credentials regardless of email case", func() {
			user, err := service.Login(ctx, LoginDTO{Email: " User@Staff.local ", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("rejects a wrong password and an unknown email alike", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "user@staff.local", Password: "wrong"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCredentials))

			_, err = service.Login(ctx, LoginDTO{Email: "nobody@staff.local", Password: "wrong"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCredentials))
		})

		ginkgo.It("refuses inactive accounts", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "inactive@staff.local", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrUserInactive))
		})

		ginkgo.It("validates the form before touching the store", func() {
			repo.err = errStoreDown
			_, err := service.Login(ctx, LoginDTO{Email: "not-an-email"})
			expectAppError(err, http.StatusBadRequest, appErrors.ErrCodeValidationFailed)
		})

		ginkgo.It("rate limits repeated attempts per email", func() {
			for i := 0; i < 3; i++ {
				_, _ = service.Login(ctx, LoginDTO{Email: "user@staff.local", Password: "wrong"})
			}
			_, err := service.Login(ctx, LoginDTO{Email: "user@staff.local", Password: "correct_password"})
			expectAppError(err, http.StatusTooManyRequests, appErrors.ErrCodeRateLimited)
		})
	})

	ginkgo.Describe("StartVerification", func() {
		ginkgo.It("stores a hashed code and publishes the plain one", func() {
			err := service.StartVerification(ctx, EmailDTO{Email: "new@staff.local"}, VerificationOnboarding)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			v := repo.verifications["new@staff.local|onboarding"]
			gomega.Expect(v.CodeHash).To(gomega.Equal(hashCode("123456")))
			gomega.Expect(v.CodeHash).ToNot(gomega.ContainSubstring("123456"))
			gomega.Expect(v.ExpiresAt).To(gomega.Equal(now.Add(cookie.VerificationTTL)))

			e := publisher.last()
			gomega.Expect(e).ToNot(gomega.BeNil())
			gomega.Expect(e.Target).To(gomega.Equal("new@staff.local"))
			gomega.Expect(e.Code).To(gomega.Equal("123456"))
		})

		ginkgo.It("expires codes together with the verification cookie by default", func() {
			gomega.Expect(service.cfg.CodeTTL).To(gomega.Equal(cookie.VerificationTTL))
			gomega.Expect(cookie.VerificationTTL).To(gomega.Equal(10 * time.Minute))
		})

		ginkgo.It("replaces the previous code for the same target", func() {
			gomega.Expect(service.StartVerification(ctx, EmailDTO{Email: "new@staff.local"}, VerificationOnboarding)).To(gomega.Succeed())
			service.newCode = func() (string, error) { return "654321", nil }
			gomega.Expect(service.StartVerification(ctx, EmailDTO{Email: "new@staff.local"}, VerificationOnboarding)).To(gomega.Succeed())

			gomega.Expect(repo.verifications).To(gomega.HaveLen(1))
			gomega.Expect(repo.verifications["new@staff.local|onboarding"].CodeHash).To(gomega.Equal(hashCode("654321")))
		})

		ginkgo.It("refuses signup for a registered email", func() {
			err := service.StartVerification(ctx, EmailDTO{Email: "user@staff.local"}, VerificationOnboarding)
			expectAppError(err, http.StatusBadRequest, appErrors.ErrCodeValidationFailed)
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("already exists"))
		})

		ginkgo.It("silently skips resets for unknown emails", func() {
			err := service.StartVerification(ctx, EmailDTO{Email: "nobody@staff.local"}, VerificationResetPassword)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.verifications).To(gomega.BeEmpty())
			gomega.Expect(publisher.last()).To(gomega.BeNil())
		})

		ginkgo.It("still succeeds when publishing fails", func() {
			publisher.err = errStoreDown
			err := service.StartVerification(ctx, EmailDTO{Email: "user@staff.local"}, VerificationResetPassword)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.BeforeEach(func() {
			gomega.Expect(service.StartVerification(ctx, EmailDTO{Email: "new@staff.local"}, VerificationOnboarding)).To(gomega.Succeed())
		})

		ginkgo.It("consumes a matching code", func() {
			gomega.Expect(service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "123456"})).To(gomega.Succeed())
			gomega.Expect(repo.verifications).To(gomega.BeEmpty())

			err := service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "123456"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCode))
		})

		ginkgo.It("rejects a wrong code and keeps the row", func() {
			err := service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "000000"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCode))
			gomega.Expect(repo.verifications).To(gomega.HaveLen(1))
		})

		ginkgo.It("rejects an expired code", func() {
			now = now.Add(10 * time.Minute)
			err := service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "123456"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCode))
		})

		ginkgo.It("rejects a code issued for another flow", func() {
			err := service.Verify(ctx, "new@staff.local", VerificationResetPassword, CodeDTO{Code: "123456"})
			gomega.Expect(err).To(gomega.MatchError(appErrors.ErrInvalidCode))
		})

		ginkgo.It("rate limits guessing", func() {
			_ = service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "000000"})
			_ = service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "000001"})
			err := service.Verify(ctx, "new@staff.local", VerificationOnboarding, CodeDTO{Code: "123456"})
			expectAppError(err, http.StatusTooManyRequests, appErrors.ErrCodeRateLimited)
		})
	})

	ginkgo.Describe("Onboard", func() {
		ginkgo.It("creates an active user with the user role", func() {
			user, err := service.Onboard(ctx, "New@staff.local", OnboardingDTO{
				Name:        "New Hire",
				PasswordDTO: PasswordDTO{Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"},
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.Email).To(gomega.Equal("new@staff.local"))
			gomega.Expect(user.Roles).To(gomega.Equal([]string{RoleUser}))
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass"))).To(gomega.Succeed())
		})

		ginkgo.It("reports mismatched passwords on the confirm field", func() {
			_, err := service.Onboard(ctx, "new@staff.local", OnboardingDTO{
				Name:        "New Hire",
				PasswordDTO: PasswordDTO{Password: "s3cret-pass", ConfirmPassword: "other-pass"},
			})
			appErr, ok := appErrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			details := appErr.Details.(appErrors.ValidationErrors)
			gomega.Expect(details.Errors).To(gomega.ContainElement(gomega.HaveField("Field", "confirmPassword")))
		})

		ginkgo.It("maps a taken email to a field error", func() {
			_, err := service.Onboard(ctx, "user@staff.local", OnboardingDTO{
				Name:        "Dup",
				PasswordDTO: PasswordDTO{Password: "s3cret-pass", ConfirmPassword: "s3cret-pass"},
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(strings.ToLower(err.Error())).To(gomega.ContainSubstring("already exists"))
		})
	})

	ginkgo.Describe("ResetPassword", func() {
		ginkgo.It("replaces the password hash", func() {
			err := service.ResetPassword(ctx, "user@staff.local", PasswordDTO{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Login(ctx, LoginDTO{Email: "user@staff.local", Password: "brand-new-pass"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("answers not found for an unknown account", func() {
			err := service.ResetPassword(ctx, "nobody@staff.local", PasswordDTO{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
			expectAppError(err, http.StatusNotFound, appErrors.ErrCodeNotFound)
		})
	})
})
