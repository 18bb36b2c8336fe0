package forms

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestLoginForm(t *testing.T) {
	tests := []struct {
		name      string
		form      LoginForm
		wantField string
		wantMsg   string
	}{
		{name: "academic email passes", form: LoginForm{Email: "student@mit.edu", Password: "x"}},
		{name: "non academic email", form: LoginForm{Email: "student@gmail.com", Password: "x"}, wantField: "email", wantMsg: MsgAcademicEmail},
		{name: "malformed email", form: LoginForm{Email: "not-an-email", Password: "x"}, wantField: "email", wantMsg: MsgInvalidEmail},
		{name: "empty email", form: LoginForm{Password: "x"}, wantField: "email", wantMsg: MsgInvalidEmail},
		{name: "missing password", form: LoginForm{Email: "student@mit.edu"}, wantField: "password", wantMsg: MsgPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.wantMsg, fieldErrors(t, err).Field(tt.wantField))
		})
	}
}

func validRegister() RegisterForm {
	return RegisterForm{
		Name:            "Ada Lovelace",
		Email:           "ada@ox.edu",
		Password:        "Analyt1cal!",
		ConfirmPassword: "Analyt1cal!",
		Institution:     "Oxford",
		Role:            models.AcademicResearcher,
		AcceptTerms:     true,
	}
}

func TestRegisterForm(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*RegisterForm)
		wantField string
		wantMsg   string
	}{
		{name: "valid", mutate: func(*RegisterForm) {}},
		{name: "short name", mutate: func(f *RegisterForm) { f.Name = "A" }, wantField: "name", wantMsg: MsgNameTooShort},
		{name: "long name", mutate: func(f *RegisterForm) { f.Name = string(make([]byte, 51)) + "x" }, wantField: "name", wantMsg: MsgNameTooLong},
		{name: "weak password", mutate: func(f *RegisterForm) { f.Password, f.ConfirmPassword = "password1", "password1" }, wantField: "password", wantMsg: MsgPasswordStrength},
		{name: "short password", mutate: func(f *RegisterForm) { f.Password, f.ConfirmPassword = "Ab1!", "Ab1!" }, wantField: "password", wantMsg: MsgPasswordTooShort},
		{name: "disallowed character", mutate: func(f *RegisterForm) { f.Password, f.ConfirmPassword = "Analyt1cal!#", "Analyt1cal!#" }, wantField: "password", wantMsg: MsgPasswordStrength},
		{name: "mismatch", mutate: func(f *RegisterForm) { f.ConfirmPassword = "Different1!" }, wantField: "confirmPassword", wantMsg: MsgPasswordsMismatch},
		{name: "institution", mutate: func(f *RegisterForm) { f.Institution = "" }, wantField: "institution", wantMsg: MsgInstitution},
		{name: "role", mutate: func(f *RegisterForm) { f.Role = "dean" }, wantField: "role", wantMsg: MsgRole},
		{name: "terms", mutate: func(f *RegisterForm) { f.AcceptTerms = false }, wantField: "acceptTerms", wantMsg: MsgTerms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRegister()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantMsg, fieldErrors(t, err).Field(tt.wantField))
		})
	}
}

func TestResetPasswordForm(t *testing.T) {
	err := ResetPasswordForm{Token: "tok", Password: "Secur3!pw", ConfirmPassword: "Secur3!pw"}.Validate()
	assert.NoError(t, err)

	err = ResetPasswordForm{Password: "Secur3!pw", ConfirmPassword: "nope"}.Validate()
	fe := fieldErrors(t, err)
	assert.Equal(t, MsgTokenRequired, fe.Field("token"))
	assert.Equal(t, MsgPasswordsMismatch, fe.Field("confirmPassword"))
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		pw    string
		score int
		label string
	}{
		{"", 0, "Very Weak"},
		{"abc", 1, "Weak"},
		{"abcABC", 2, "Fair"},
		{"abcABC12", 4, "Strong"},
		{"abcABC12!", 5, "Strong"},
	}
	for _, tt := range tests {
		got := PasswordStrength(tt.pw)
		assert.Equal(t, tt.score, got.Score, tt.pw)
		assert.Equal(t, tt.label, got.Label, tt.pw)
		assert.Len(t, got.Requirements, 5)
	}
}

func TestCreatePresentationForm(t *testing.T) {
	assert.NoError(t, CreatePresentationForm{Title: "Talk", Content: "abstract"}.Validate())
	assert.NoError(t, CreatePresentationForm{Title: "Talk", FilePath: "paper.pdf"}.Validate())

	fe := fieldErrors(t, CreatePresentationForm{}.Validate())
	assert.Equal(t, MsgTitleRequired, fe.Field("title"))
	assert.Equal(t, MsgSourceRequired, fe.Field("content"))
}

func TestGenerationForm(t *testing.T) {
	ok := GenerationForm{Content: "Our results show...", Config: DefaultGenerationConfig()}
	assert.NoError(t, ok.Validate())

	bad := GenerationForm{Content: "   ", Config: models.PresentationConfig{Duration: 500}}
	fe := fieldErrors(t, bad.Validate())
	assert.NotEmpty(t, fe.Field("content"))
	assert.Equal(t, MsgTemplateRequired, fe.Field("config.template"))
	assert.NotEmpty(t, fe.Field("config.duration"))
}

func TestEstimatedCost(t *testing.T) {
	assert.Equal(t, 0.75, EstimatedCost(models.PresentationConfig{Duration: 15}))
	assert.Equal(t, 1.9, EstimatedCost(models.PresentationConfig{Duration: 30, IncludeCitations: true, IncludeMath: true}))
	assert.Equal(t, 0.5, EstimatedCost(models.PresentationConfig{}))
	assert.Equal(t, 8, EstimatedSlides(15))
}

func TestExportForm(t *testing.T) {
	assert.NoError(t, ExportForm{Options: models.ExportOptions{Format: models.ExportPDF, SlidesPerPage: 4}}.Validate())

	fe := fieldErrors(t, ExportForm{Options: models.ExportOptions{Format: models.ExportPPTX, SlidesPerPage: 4}}.Validate())
	assert.NotEmpty(t, fe.Field("slidesPerPage"))

	fe = fieldErrors(t, ExportForm{Options: models.ExportOptions{Format: "keynote"}}.Validate())
	assert.Equal(t, "Unsupported export format", fe.Field("format"))
}

func TestCollaboratorForm(t *testing.T) {
	assert.NoError(t, CollaboratorForm{Email: "bob@uni.edu", Role: models.RoleEditor}.Validate())
	fe := fieldErrors(t, CollaboratorForm{Email: "bob@uni.edu", Role: models.RoleOwner}.Validate())
	assert.NotEmpty(t, fe.Field("role"))
}

func TestValidateUpload(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	assert.NoError(t, ValidateUpload(write("notes.txt", []byte("hello"))))
	assert.NoError(t, ValidateUpload(write("paper.pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))))

	err := ValidateUpload(write("slides.key", []byte("x")))
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "File type not supported. Please upload .pdf, .docx, .tex, .txt files.", ue.Message)

	err = ValidateUpload(write("fake.pdf", []byte("just text")))
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "Invalid PDF file")

	big := write("big.txt", make([]byte, 11<<20))
	err = ValidateUpload(big)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "File size exceeds 10MB limit. Your file is 11.00MB.", ue.Message)
}
