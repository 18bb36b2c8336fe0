package models

// TemplateCategory groups gallery templates.
type TemplateCategory string

const (
	CategoryAcademic TemplateCategory = "academic"
	CategoryBusiness TemplateCategory = "business"
	CategoryCreative TemplateCategory = "creative"
	CategoryMinimal  TemplateCategory = "minimal"
)

// SlideTemplate is one slide skeleton in a template.
type SlideTemplate struct {
	Layout SlideLayout `yaml:"layout" json:"layout"`
	Title  string      `yaml:"title" json:"title,omitempty"`
}

// Template is a gallery entry used to seed generation.
type Template struct {
	ID          string           `yaml:"-" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Category    TemplateCategory `yaml:"category" json:"category"`
	Thumbnail   string           `yaml:"thumbnail" json:"thumbnail,omitempty"`
	Background  string           `yaml:"background" json:"background,omitempty"`
	Foreground  string           `yaml:"foreground" json:"foreground,omitempty"`
	Accent      string           `yaml:"accent" json:"accent,omitempty"`
	Slides      []SlideTemplate  `yaml:"slides" json:"slides"`
}
