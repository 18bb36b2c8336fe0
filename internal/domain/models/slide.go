package models

import (
	"encoding/json"
	"fmt"
)

// SlideLayout is one of the fixed slide layouts.
type SlideLayout string

const (
	LayoutTitle        SlideLayout = "title"
	LayoutTitleContent SlideLayout = "title-content"
	LayoutTwoColumn    SlideLayout = "two-column"
	LayoutImageLeft    SlideLayout = "image-left"
	LayoutImageRight   SlideLayout = "image-right"
	LayoutFullImage    SlideLayout = "full-image"
	LayoutComparison   SlideLayout = "comparison"
	LayoutQuote        SlideLayout = "quote"
)

// Layouts lists every layout in gallery order.
var Layouts = []SlideLayout{
	LayoutTitle,
	LayoutTitleContent,
	LayoutTwoColumn,
	LayoutImageLeft,
	LayoutImageRight,
	LayoutFullImage,
	LayoutComparison,
	LayoutQuote,
}

// Valid reports whether l is a known layout.
func (l SlideLayout) Valid() bool {
	for _, known := range Layouts {
		if l == known {
			return true
		}
	}
	return false
}

// Slide is one page of a presentation. Order is the slide's index within
// its presentation.
type Slide struct {
	ID      string       `json:"id"`
	Order   int          `json:"order"`
	Title   string       `json:"title,omitempty"`
	Layout  SlideLayout  `json:"layout"`
	Content SlideContent `json:"-"`
	Notes   string       `json:"notes,omitempty"`
}

type slideJSON struct {
	ID      string          `json:"id"`
	Order   int             `json:"order"`
	Title   string          `json:"title,omitempty"`
	Layout  SlideLayout     `json:"layout"`
	Content json.RawMessage `json:"content"`
	Notes   string          `json:"notes,omitempty"`
}

// MarshalJSON writes the content as {"type": ..., "data": {...}}.
func (s Slide) MarshalJSON() ([]byte, error) {
	content := s.Content
	if content == nil {
		content = DefaultContent(s.Layout)
	}
	raw, err := MarshalContent(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(slideJSON{
		ID:      s.ID,
		Order:   s.Order,
		Title:   s.Title,
		Layout:  s.Layout,
		Content: raw,
		Notes:   s.Notes,
	})
}

// UnmarshalJSON decodes the content variant selected by the slide's layout.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var raw slideJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Layout == "" {
		raw.Layout = LayoutTitleContent
	}
	if !raw.Layout.Valid() {
		return fmt.Errorf("unknown slide layout %q", raw.Layout)
	}
	content, err := UnmarshalContent(raw.Layout, raw.Content)
	if err != nil {
		return fmt.Errorf("slide %s: %w", raw.ID, err)
	}
	*s = Slide{
		ID:      raw.ID,
		Order:   raw.Order,
		Title:   raw.Title,
		Layout:  raw.Layout,
		Content: content,
		Notes:   raw.Notes,
	}
	return nil
}

// CloneSlides copies a slide slice. Content variants are value types.
func CloneSlides(slides []Slide) []Slide {
	if slides == nil {
		return nil
	}
	out := make([]Slide, len(slides))
	copy(out, slides)
	return out
}

// Renumber returns a copy of slides with Order set to each slide's index.
func Renumber(slides []Slide) []Slide {
	out := CloneSlides(slides)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// SlidePatch is a partial slide update. Nil fields are left untouched.
// Notes uses OptionalString so a patch can clear the notes.
type SlidePatch struct {
	Title   *string        `json:"title,omitempty"`
	Layout  *SlideLayout   `json:"layout,omitempty"`
	Content SlideContent   `json:"-"`
	Notes   OptionalString `json:"notes"`
}

// Apply merges the patch into a copy of s. A layout change without new
// content converts the existing content to the new layout's variant.
func (p SlidePatch) Apply(s Slide) Slide {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Layout != nil && *p.Layout != s.Layout {
		s.Layout = *p.Layout
		if p.Content == nil {
			s.Content = ConvertContent(s.Content, s.Layout)
		}
	}
	if p.Content != nil {
		s.Content = p.Content
	}
	if p.Notes.Present {
		if p.Notes.Value == nil {
			s.Notes = ""
		} else {
			s.Notes = *p.Notes.Value
		}
	}
	return s
}

// SlidePreview is the lightweight stub streamed during generation.
type SlidePreview struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Order     int    `json:"order"`
}
