package viewer

import (
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"

	"slidegenie/internal/domain/models"
)

// TextRenderer turns slide HTML into Markdown for the terminal. Content is
// sanitized before conversion. Safe for concurrent use.
type TextRenderer struct {
	policy    *bluemonday.Policy
	strict    *bluemonday.Policy
	converter *md.Converter
}

// NewTextRenderer uses the UGC policy for bodies and the strict policy for
// headings, which must come out as plain text.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		policy:    bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Markdown sanitizes an HTML fragment and converts it.
func (r *TextRenderer) Markdown(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	out, err := r.converter.ConvertString(r.policy.Sanitize(fragment))
	if err != nil {
		return "", fmt.Errorf("convert slide html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Plain strips every tag and collapses whitespace.
func (r *TextRenderer) Plain(fragment string) string {
	return strings.Join(strings.Fields(html.UnescapeString(r.strict.Sanitize(fragment))), " ")
}

// Slide renders one slide as a Markdown document: heading, body sections
// and, when withNotes is set, the speaker notes.
func (r *TextRenderer) Slide(s models.Slide, withNotes bool) (string, error) {
	sec := slideSections(s)

	var b strings.Builder
	heading := r.Plain(sec.heading)
	if heading == "" {
		heading = fmt.Sprintf("Slide %d", s.Order+1)
	}
	fmt.Fprintf(&b, "## %s\n", heading)
	if sub := r.Plain(sec.subheading); sub != "" {
		fmt.Fprintf(&b, "\n_%s_\n", sub)
	}

	for _, part := range sec.parts {
		body, err := r.Markdown(part.body)
		if err != nil {
			return "", err
		}
		label := r.Plain(part.label)
		if label == "" && body == "" {
			continue
		}
		b.WriteString("\n")
		if label != "" {
			fmt.Fprintf(&b, "### %s\n\n", label)
		}
		if body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
	if sec.image != "" {
		fmt.Fprintf(&b, "\n![%s](%s)\n", r.Plain(sec.imageAlt), sec.image)
	}
	if sec.quote != "" {
		fmt.Fprintf(&b, "\n> %s\n", r.Plain(sec.quote))
		if author := r.Plain(sec.author); author != "" {
			fmt.Fprintf(&b, ">\n> — %s\n", author)
		}
	}

	if withNotes {
		b.WriteString("\n---\n")
		if notes := strings.TrimSpace(s.Notes); notes != "" {
			b.WriteString(notes)
			b.WriteString("\n")
		} else {
			b.WriteString("No speaker notes for this slide\n")
		}
	}
	return b.String(), nil
}

type section struct {
	label string
	body  string
}

// sections is the layout-independent view of a slide's content used by both
// renderers. Text fields are still HTML.
type sections struct {
	heading    string
	subheading string
	parts      []section
	image      string
	imageAlt   string
	quote      string
	author     string
	imageLeft  bool
}

func slideSections(s models.Slide) sections {
	out := sections{heading: s.Title}
	content := s.Content
	if content == nil {
		content = models.DefaultContent(s.Layout)
	}
	setHeading := func(h string) {
		if h != "" {
			out.heading = h
		}
	}

	switch c := content.(type) {
	case models.TitleContent:
		setHeading(c.Title)
		out.subheading = c.Subtitle
	case models.TextContent:
		setHeading(c.Title)
		out.parts = []section{{body: c.Content}}
	case models.ColumnsContent:
		out.parts = []section{
			{label: c.LeftTitle, body: c.LeftContent},
			{label: c.RightTitle, body: c.RightContent},
		}
	case models.ImageTextContent:
		setHeading(c.Title)
		out.parts = []section{{body: c.Content}}
		out.image, out.imageAlt = c.ImageURL, c.ImageAlt
		out.imageLeft = s.Layout == models.LayoutImageLeft
	case models.ImageContent:
		setHeading(c.Title)
		out.image, out.imageAlt = c.URL, c.Alt
		out.subheading = c.Caption
	case models.QuoteContent:
		out.quote, out.author = c.Quote, c.Author
	}
	return out
}
