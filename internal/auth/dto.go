package auth

import (
	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type LoginDTO struct {
	Email      string
	Password   string
	Remember   bool
	RedirectTo string
}

func LoginDTOFromForm(f *transport.FormReader) LoginDTO {
	return LoginDTO{
		Email:      f.String("email"),
		Password:   f.String("password"),
		Remember:   f.Bool("remember"),
		RedirectTo: f.String("redirectTo"),
	}
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type EmailDTO struct {
	Email string
}

func (d EmailDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(254)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CodeDTO struct {
	Code string
}

func (d CodeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("code", d.Code).Required().MinLength(codeLength).MaxLength(codeLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PasswordDTO struct {
	Password        string
	ConfirmPassword string
}

func PasswordDTOFromForm(f *transport.FormReader) PasswordDTO {
	return PasswordDTO{
		Password:        f.String("password"),
		ConfirmPassword: f.String("confirmPassword"),
	}
}

func (d PasswordDTO) validateInto(v *validation.ValidationBuilder) {
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	if d.Password != "" && d.Password != d.ConfirmPassword {
		v.AddError("confirmPassword", "Passwords do not match", appErrors.ErrCodePasswordMismatch)
	}
}

func (d PasswordDTO) Validate() error {
	v := validation.NewValidator()
	d.validateInto(v)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type OnboardingDTO struct {
	Name string
	PasswordDTO
}

func (d OnboardingDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	d.validateInto(v)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
