package forms

import (
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
)

// CreatePresentationForm creates an empty or content-seeded presentation.
type CreatePresentationForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TemplateID  string `json:"templateId"`
	FilePath    string `json:"file"`
	Content     string `json:"content"`
}

// Validate checks the form. One of file or content must be supplied.
func (f CreatePresentationForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Title,
			validation.Required.Error(MsgTitleRequired),
			validation.RuneLength(0, config.MaxTitleLength).Error(MsgTitleTooLong),
		),
		validation.Field(&f.Description, validation.RuneLength(0, config.MaxDescriptionLength).Error(MsgDescriptionLong)),
		validation.Field(&f.Content, validation.When(f.FilePath == "", validation.Required.Error(MsgSourceRequired))),
	))
}

// Request returns the POST /presentations body.
func (f CreatePresentationForm) Request() models.CreatePresentationRequest {
	return models.CreatePresentationRequest{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		TemplateID:  f.TemplateID,
		Content:     f.Content,
	}
}

// GenerationForm is the creation wizard: source material plus settings.
type GenerationForm struct {
	Content  string                    `json:"content"`
	FilePath string                    `json:"file"`
	Config   models.PresentationConfig `json:"config"`
}

// Validate checks the wizard. The source must be non-blank text or a file.
func (f GenerationForm) Validate() error {
	cfg := f.Config
	err := validation.Errors{
		"content": validation.Validate(strings.TrimSpace(f.Content),
			validation.When(f.FilePath == "", validation.Required.Error("Please enter some content for your presentation"))),
		"config": validation.ValidateStruct(&cfg,
			validation.Field(&cfg.Template, validation.Required.Error(MsgTemplateRequired)),
			validation.Field(&cfg.ConferenceType, validation.In(
				models.ConferenceAcademic, models.ConferenceBusiness,
				models.ConferenceWorkshop, models.ConferenceLecture,
			).Error("Please select a conference type")),
			validation.Field(&cfg.Duration, validation.Min(config.MinDuration), validation.Max(config.MaxDuration)),
		),
	}.Filter()
	return toFieldErrors(err)
}

// DefaultGenerationConfig mirrors the wizard's initial settings.
func DefaultGenerationConfig() models.PresentationConfig {
	return models.PresentationConfig{
		Template:       "academic-modern",
		ConferenceType: models.ConferenceAcademic,
		Duration:       15,
		ColorScheme:    "default",
		Language:       "en",
	}
}

// EstimatedCost returns the credit cost of a generation, rounded to cents.
func EstimatedCost(cfg models.PresentationConfig) float64 {
	multiplier := 1.0
	if cfg.Duration > 0 {
		multiplier = float64(cfg.Duration) / 10
	}
	extras := 0.0
	if cfg.IncludeCitations {
		extras += 0.2
	}
	if cfg.IncludeMath {
		extras += 0.2
	}
	return math.Round((0.5*multiplier+extras)*100) / 100
}

// EstimatedSlides assumes two minutes per slide.
func EstimatedSlides(durationMinutes int) int {
	return int(math.Ceil(float64(durationMinutes) / 2))
}

// ExportForm validates export options before the request is sent.
type ExportForm struct {
	Options models.ExportOptions
}

// Validate checks format, quality, handout layout and the optional email.
func (f ExportForm) Validate() error {
	o := f.Options
	return toFieldErrors(validation.ValidateStruct(&o,
		validation.Field(&o.Format,
			validation.Required.Error("Please choose an export format"),
			validation.In(models.ExportPPTX, models.ExportPDF, models.ExportLaTeX).Error("Unsupported export format"),
		),
		validation.Field(&o.Quality, validation.In(models.QualityLow, models.QualityMedium, models.QualityHigh)),
		validation.Field(&o.SlidesPerPage,
			validation.When(o.Format != models.ExportPDF, validation.Empty.Error("Slides per page applies to PDF handouts only")),
			validation.In(1, 2, 3, 4, 6, 9),
		),
		validation.Field(&o.EmailTo, validation.Match(emailPattern).Error(MsgInvalidEmail)),
	))
}

// CollaboratorForm invites a user to a presentation.
type CollaboratorForm struct {
	Email string                  `json:"email"`
	Role  models.CollaboratorRole `json:"role"`
}

// Validate checks the invite. Ownership cannot be granted by invitation.
func (f CollaboratorForm) Validate() error {
	return toFieldErrors(validation.ValidateStruct(&f,
		validation.Field(&f.Email,
			validation.Required.Error(MsgInvalidEmail),
			validation.Match(emailPattern).Error(MsgInvalidEmail),
		),
		validation.Field(&f.Role,
			validation.Required.Error("Please choose a role"),
			validation.In(models.RoleViewer, models.RoleEditor).Error("Role must be viewer or editor"),
		),
	))
}

// ValidateRole checks a role change for an existing collaborator.
func ValidateRole(role models.CollaboratorRole) error {
	switch role {
	case models.RoleViewer, models.RoleEditor, models.RoleOwner:
		return nil
	}
	return FieldErrors{"role": "Unknown role"}
}
