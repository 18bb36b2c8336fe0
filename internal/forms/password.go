package forms

import (
	"errors"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"slidegenie/internal/config"
)

const passwordSpecials = "@$!%*?&"

// Requirement is one line of the password checklist.
type Requirement struct {
	Text string
	Met  bool
}

// Strength summarises how many password requirements are met.
type Strength struct {
	Score        int
	Label        string
	Requirements []Requirement
}

var strengthLabels = []string{"Very Weak", "Weak", "Fair", "Good", "Strong"}

// PasswordStrength scores pw against the five password requirements.
// A score of 4 or 5 is labelled Strong.
func PasswordStrength(pw string) Strength {
	reqs := []Requirement{
		{Text: "At least 8 characters", Met: utf8.RuneCountInString(pw) >= config.MinPasswordLength},
		{Text: "One uppercase letter", Met: strings.IndexFunc(pw, isUpper) >= 0},
		{Text: "One lowercase letter", Met: strings.IndexFunc(pw, isLower) >= 0},
		{Text: "One number", Met: strings.IndexFunc(pw, isDigit) >= 0},
		{Text: "One special character", Met: strings.ContainsAny(pw, passwordSpecials)},
	}

	score := 0
	for _, r := range reqs {
		if r.Met {
			score++
		}
	}
	label := strengthLabels[min(score, len(strengthLabels)-1)]
	return Strength{Score: score, Label: label, Requirements: reqs}
}

// strongPassword requires one of each character class and allows nothing
// outside letters, digits and the special set.
var strongPassword = validation.By(func(value interface{}) error {
	pw, _ := value.(string)
	if pw == "" {
		return nil
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case isLower(r):
			lower = true
		case isUpper(r):
			upper = true
		case isDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return errors.New(MsgPasswordStrength)
		}
	}
	if !lower || !upper || !digit || !special {
		return errors.New(MsgPasswordStrength)
	}
	return nil
})

// newPasswordRules is the rule chain for any password being set.
func newPasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(MsgPasswordTooShort),
		validation.RuneLength(config.MinPasswordLength, 0).Error(MsgPasswordTooShort),
		strongPassword,
	}
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
