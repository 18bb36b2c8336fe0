// Package forms holds the client-side validation schemas run before any
// request leaves the process. Failures are reported per field and never
// reach the gateway.
package forms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"slidegenie/internal/domain"
)

// Error messages shown next to the offending field.
const (
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgAcademicEmail     = "Please use your academic email address (.edu)"
	MsgPasswordRequired  = "Password is required"
	MsgPasswordTooShort  = "Password must be at least 8 characters"
	MsgPasswordStrength  = "Password must contain uppercase, lowercase, number, and special character"
	MsgPasswordsMismatch = "Passwords don't match"
	MsgNameTooShort      = "Name must be at least 2 characters"
	MsgNameTooLong       = "Name must be less than 50 characters"
	MsgInstitution       = "Please enter your institution name"
	MsgRole              = "Please select your academic role"
	MsgTerms             = "You must accept the terms and conditions"
	MsgTitleRequired     = "Title is required"
	MsgTitleTooLong      = "Title is too long"
	MsgDescriptionLong   = "Description is too long"
	MsgSourceRequired    = "Either file or content is required"
	MsgTemplateRequired  = "Please select a template"
	MsgInvalidURL        = "Please enter a valid URL"
	MsgTokenRequired     = "Reset token is required"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	academicPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.edu$`)
	urlPattern      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
)

// FieldErrors maps a field's JSON name to its first failing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match domain.ErrValidation.
func (e FieldErrors) Unwrap() error { return domain.ErrValidation }

// Field returns the message for one field, or "".
func (e FieldErrors) Field(name string) string { return e[name] }

// toFieldErrors flattens ozzo's error map. Non-validation errors pass through.
func toFieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for field, ferr := range verrs {
		var nested validation.Errors
		if errors.As(ferr, &nested) {
			for k, v := range nested {
				out[field+"."+k] = v.Error()
			}
			continue
		}
		out[field] = ferr.Error()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// academicEmailRules is the rule chain shared by every form with an email field.
func academicEmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(MsgInvalidEmail),
		validation.Match(emailPattern).Error(MsgInvalidEmail),
		validation.Match(academicPattern).Error(MsgAcademicEmail),
	}
}

// equalTo fails when the value differs from other.
func equalTo(other string, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(msg)
		}
		return nil
	})
}

// IsAcademicEmail reports whether email belongs to a .edu domain.
func IsAcademicEmail(email string) bool {
	return academicPattern.MatchString(email)
}
