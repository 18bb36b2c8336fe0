package models

import "time"

// PresentationStatus is the lifecycle state of a stored presentation.
type PresentationStatus string

const (
	PresentationStatusDraft     PresentationStatus = "draft"
	PresentationStatusPublished PresentationStatus = "published"
	PresentationStatusArchived  PresentationStatus = "archived"
)

// Valid reports whether s is a known status.
func (s PresentationStatus) Valid() bool {
	switch s {
	case PresentationStatusDraft, PresentationStatusPublished, PresentationStatusArchived:
		return true
	}
	return false
}

// Presentation is a full deck as returned by the presentations API.
type Presentation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Slides      []Slide            `json:"slides"`
	UserID      string             `json:"userId"`
	TemplateID  string             `json:"templateId,omitempty"`
	Status      PresentationStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy. Slide content variants are plain values, so
// copying the slide slice is enough to detach the snapshot.
func (p *Presentation) Clone() *Presentation {
	if p == nil {
		return nil
	}
	c := *p
	c.Slides = CloneSlides(p.Slides)
	return &c
}

// PresentationPatch carries the presentation-level fields an editor may change.
// Nil pointers leave the field untouched.
type PresentationPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Status      *PresentationStatus `json:"status,omitempty"`
	TemplateID  *string             `json:"templateId,omitempty"`
}

// Apply returns a copy of p with the patch merged in.
func (patch PresentationPatch) Apply(p *Presentation) *Presentation {
	c := p.Clone()
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.TemplateID != nil {
		c.TemplateID = *patch.TemplateID
	}
	return c
}

// SummaryStatus is the dashboard-facing status of a presentation.
type SummaryStatus string

const (
	SummaryStatusCompleted  SummaryStatus = "completed"
	SummaryStatusInProgress SummaryStatus = "in-progress"
	SummaryStatusDraft      SummaryStatus = "draft"
)

// PresentationSummary is one row in the presentations dashboard.
type PresentationSummary struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Thumbnail    string        `json:"thumbnail,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastModified time.Time     `json:"lastModified"`
	Status       SummaryStatus `json:"status"`
	SlideCount   int           `json:"slideCount"`
	Template     string        `json:"template"`
}

// PresentationList is one page of summaries from the list endpoint.
type PresentationList struct {
	Presentations []PresentationSummary `json:"presentations"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	TotalPages    int                   `json:"totalPages"`
}

// CreatePresentationRequest is the body of POST /presentations.
type CreatePresentationRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"templateId,omitempty"`
	Content     string `json:"content,omitempty"`
}
