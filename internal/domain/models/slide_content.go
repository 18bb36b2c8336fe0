package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentType is the wire tag of a slide's content payload.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeChart ContentType = "chart"
	ContentTypeTable ContentType = "table"
	ContentTypeMixed ContentType = "mixed"
)

// SlideContent is the closed set of per-layout payloads. Each variant carries
// only the fields its layout renders. Text fields hold HTML fragments.
type SlideContent interface {
	ContentType() ContentType
	isSlideContent()
}

// TitleContent backs the title layout.
type TitleContent struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// TextContent backs the title-content layout.
type TextContent struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// ColumnsContent backs the two-column and comparison layouts.
type ColumnsContent struct {
	LeftTitle    string `json:"leftTitle,omitempty"`
	LeftContent  string `json:"leftContent,omitempty"`
	RightTitle   string `json:"rightTitle,omitempty"`
	RightContent string `json:"rightContent,omitempty"`
}

// ImageTextContent backs the image-left and image-right layouts.
type ImageTextContent struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	ImageAlt string `json:"imageAlt,omitempty"`
}

// ImageContent backs the full-image layout.
type ImageContent struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// QuoteContent backs the quote layout.
type QuoteContent struct {
	Quote  string `json:"quote,omitempty"`
	Author string `json:"author,omitempty"`
}

func (TitleContent) ContentType() ContentType     { return ContentTypeText }
func (TextContent) ContentType() ContentType      { return ContentTypeText }
func (ColumnsContent) ContentType() ContentType   { return ContentTypeMixed }
func (ImageTextContent) ContentType() ContentType { return ContentTypeMixed }
func (ImageContent) ContentType() ContentType     { return ContentTypeImage }
func (QuoteContent) ContentType() ContentType     { return ContentTypeText }

func (TitleContent) isSlideContent()     {}
func (TextContent) isSlideContent()      {}
func (ColumnsContent) isSlideContent()   {}
func (ImageTextContent) isSlideContent() {}
func (ImageContent) isSlideContent()     {}
func (QuoteContent) isSlideContent()     {}

// DefaultContent returns the empty variant for a layout.
func DefaultContent(layout SlideLayout) SlideContent {
	switch layout {
	case LayoutTitle:
		return TitleContent{}
	case LayoutTwoColumn, LayoutComparison:
		return ColumnsContent{}
	case LayoutImageLeft, LayoutImageRight:
		return ImageTextContent{}
	case LayoutFullImage:
		return ImageContent{}
	case LayoutQuote:
		return QuoteContent{}
	default:
		return TextContent{}
	}
}

// ConvertContent moves what it can of c into the variant used by layout.
// The heading and main body carry over; fields with no counterpart are dropped.
func ConvertContent(c SlideContent, layout SlideLayout) SlideContent {
	heading, body := headingAndBody(c)
	switch layout {
	case LayoutTitle:
		return TitleContent{Title: heading, Subtitle: body}
	case LayoutTwoColumn, LayoutComparison:
		if cc, ok := c.(ColumnsContent); ok {
			return cc
		}
		return ColumnsContent{LeftTitle: heading, LeftContent: body}
	case LayoutImageLeft, LayoutImageRight:
		out := ImageTextContent{Title: heading, Content: body}
		switch v := c.(type) {
		case ImageTextContent:
			return v
		case ImageContent:
			out.ImageURL, out.ImageAlt = v.URL, v.Alt
		}
		return out
	case LayoutFullImage:
		out := ImageContent{Title: heading, Caption: body}
		switch v := c.(type) {
		case ImageContent:
			return v
		case ImageTextContent:
			out.URL, out.Alt = v.ImageURL, v.ImageAlt
		}
		return out
	case LayoutQuote:
		if q, ok := c.(QuoteContent); ok {
			return q
		}
		return QuoteContent{Quote: body, Author: ""}
	default:
		return TextContent{Title: heading, Content: body}
	}
}

func headingAndBody(c SlideContent) (string, string) {
	switch v := c.(type) {
	case TitleContent:
		return v.Title, v.Subtitle
	case TextContent:
		return v.Title, v.Content
	case ColumnsContent:
		return v.LeftTitle, v.LeftContent
	case ImageTextContent:
		return v.Title, v.Content
	case ImageContent:
		return v.Title, v.Caption
	case QuoteContent:
		return "", v.Quote
	}
	return "", ""
}

type contentEnvelope struct {
	Type ContentType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalContent encodes c in its {"type","data"} wire envelope.
func MarshalContent(c SlideContent) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(contentEnvelope{Type: c.ContentType(), Data: data})
}

// UnmarshalContent decodes a wire envelope into the variant for layout.
// A missing or null payload yields the layout's empty variant.
func UnmarshalContent(layout SlideLayout, raw []byte) (SlideContent, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return DefaultContent(layout), nil
	}
	var env contentEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode content envelope: %w", err)
	}
	data := env.Data
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return DefaultContent(layout), nil
	}

	switch DefaultContent(layout).(type) {
	case TitleContent:
		var v TitleContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	case ColumnsContent:
		var v ColumnsContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	case ImageTextContent:
		var v ImageTextContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	case ImageContent:
		var v ImageContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	case QuoteContent:
		var v QuoteContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	default:
		var v TextContent
		err := json.Unmarshal(data, &v)
		return v, wrapContentErr(layout, err)
	}
}

func wrapContentErr(layout SlideLayout, err error) error {
	if err != nil {
		return fmt.Errorf("decode %s content: %w", layout, err)
	}
	return nil
}
