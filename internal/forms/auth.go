package forms

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Validate checks the login form.
func (f LoginForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Email, academicEmailRules()...),
		validation.Field(&f.Password, validation.Required.Error(MsgPasswordRequired)),
	))
}

// Credentials returns the request body for the login call.
func (f LoginForm) Credentials() models.LoginCredentials {
	return models.LoginCredentials{
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		RememberMe: f.RememberMe,
	}
}

// RegisterForm is the account creation form.
type RegisterForm struct {
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Password        string              `json:"password"`
	ConfirmPassword string              `json:"confirmPassword"`
	Institution     string              `json:"institution"`
	Role            models.AcademicRole `json:"role"`
	AcceptTerms     bool                `json:"acceptTerms"`
}

// Validate checks the registration form.
func (f RegisterForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Name,
			validation.Required.Error(MsgNameTooShort),
			validation.RuneLength(config.MinNameLength, 0).Error(MsgNameTooShort),
			validation.RuneLength(0, config.MaxNameLength).Error(MsgNameTooLong),
		),
		validation.Field(&f.Email, academicEmailRules()...),
		validation.Field(&f.Password, newPasswordRules()...),
		validation.Field(&f.ConfirmPassword, equalTo(f.Password, MsgPasswordsMismatch)),
		validation.Field(&f.Institution,
			validation.Required.Error(MsgInstitution),
			validation.RuneLength(2, 0).Error(MsgInstitution),
		),
		validation.Field(&f.Role,
			validation.Required.Error(MsgRole),
			validation.In(models.AcademicStudent, models.AcademicResearcher, models.AcademicProfessor).Error(MsgRole),
		),
		validation.Field(&f.AcceptTerms, validation.Required.Error(MsgTerms)),
	))
}

// Credentials returns the request body for the register call.
func (f RegisterForm) Credentials() models.RegisterCredentials {
	return models.RegisterCredentials{
		Name:        strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		Password:    f.Password,
		Institution: strings.TrimSpace(f.Institution),
		Role:        f.Role,
		AcceptTerms: f.AcceptTerms,
	}
}

// ForgotPasswordForm requests a reset link.
type ForgotPasswordForm struct {
	Email string `json:"email"`
}

// Validate checks the forgot-password form.
func (f ForgotPasswordForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Email, academicEmailRules()...),
	))
}

// ResetPasswordForm sets a new password using a reset token.
type ResetPasswordForm struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the reset-password form.
func (f ResetPasswordForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Token, validation.Required.Error(MsgTokenRequired)),
		validation.Field(&f.Password, newPasswordRules()...),
		validation.Field(&f.ConfirmPassword, equalTo(f.Password, MsgPasswordsMismatch)),
	))
}

// UpdateProfileForm edits the signed-in user's profile.
type UpdateProfileForm struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Validate checks the profile form. The email need not be academic here.
func (f UpdateProfileForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Name,
			validation.Required.Error(MsgNameTooShort),
			validation.RuneLength(config.MinNameLength, 0).Error(MsgNameTooShort),
		),
		validation.Field(&f.Email,
			validation.Required.Error(MsgInvalidEmail),
			validation.Match(emailPattern).Error(MsgInvalidEmail),
		),
		validation.Field(&f.Avatar, validation.Match(urlPattern).Error(MsgInvalidURL)),
	))
}
