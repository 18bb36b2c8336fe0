package models

import "time"

// ExportFormat is a target file format for rendered decks.
type ExportFormat string

const (
	ExportPPTX  ExportFormat = "pptx"
	ExportPDF   ExportFormat = "pdf"
	ExportLaTeX ExportFormat = "latex"
)

// ExportQuality controls rendering resolution.
type ExportQuality string

const (
	QualityLow    ExportQuality = "low"
	QualityMedium ExportQuality = "medium"
	QualityHigh   ExportQuality = "high"
)

// ExportOptions is the body of an export request.
type ExportOptions struct {
	Format        ExportFormat  `json:"format"`
	Quality       ExportQuality `json:"quality,omitempty"`
	IncludeNotes  bool          `json:"includeNotes,omitempty"`
	SlidesPerPage int           `json:"slidesPerPage,omitempty"`
	EmailTo       string        `json:"emailTo,omitempty"`
}

// ExportStatus is set by the backend only.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportComplete   ExportStatus = "complete"
	ExportFailed     ExportStatus = "failed"
)

// Done reports whether the export reached a final status.
func (s ExportStatus) Done() bool {
	return s == ExportComplete || s == ExportFailed
}

// ExportRecord is one entry of a presentation's export history.
type ExportRecord struct {
	ID             string        `json:"id"`
	PresentationID string        `json:"presentationId"`
	Format         ExportFormat  `json:"format"`
	Options        ExportOptions `json:"options"`
	Status         ExportStatus  `json:"status"`
	URL            string        `json:"url,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}
