package viewer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ajstarks/deck"

	"slidegenie/internal/domain/models"
)

// Theme colors a rendered deck. Colors are SVG color specs.
type Theme struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Accent     string `json:"accent"`
}

// DefaultTheme is used when a presentation has no template colors.
var DefaultTheme = Theme{
	Background: "white",
	Foreground: "rgb(30,41,59)",
	Accent:     "rgb(37,99,235)",
}

// ThemeFor takes the colors a template defines and fills the rest from
// DefaultTheme. A nil template yields DefaultTheme.
func ThemeFor(t *models.Template) Theme {
	th := DefaultTheme
	if t == nil {
		return th
	}
	if t.Background != "" {
		th.Background = t.Background
	}
	if t.Foreground != "" {
		th.Foreground = t.Foreground
	}
	if t.Accent != "" {
		th.Accent = t.Accent
	}
	return th
}

// deck markup; element and attribute names are the ones deck.Deck decodes.
type (
	markupDeck struct {
		XMLName xml.Name      `xml:"deck"`
		Title   string        `xml:"title,omitempty"`
		Canvas  markupCanvas  `xml:"canvas"`
		Slides  []markupSlide `xml:"slide"`
	}
	markupCanvas struct {
		Width  int `xml:"width,attr"`
		Height int `xml:"height,attr"`
	}
	markupSlide struct {
		Bg     string        `xml:"bg,attr,omitempty"`
		Fg     string        `xml:"fg,attr,omitempty"`
		Images []markupImage `xml:"image"`
		Rects  []markupRect  `xml:"rect"`
		Texts  []markupText  `xml:"text"`
		Lists  []markupList  `xml:"list"`
	}
	markupImage struct {
		Name    string  `xml:"name,attr"`
		Xp      float64 `xml:"xp,attr"`
		Yp      float64 `xml:"yp,attr"`
		Width   int     `xml:"width,attr"`
		Height  int     `xml:"height,attr"`
		Caption string  `xml:"caption,attr,omitempty"`
	}
	markupRect struct {
		Xp    float64 `xml:"xp,attr"`
		Yp    float64 `xml:"yp,attr"`
		Wp    float64 `xml:"wp,attr"`
		Hp    float64 `xml:"hp,attr"`
		Color string  `xml:"color,attr,omitempty"`
	}
	markupText struct {
		Xp    float64 `xml:"xp,attr"`
		Yp    float64 `xml:"yp,attr"`
		Sp    float64 `xml:"sp,attr"`
		Wp    float64 `xml:"wp,attr,omitempty"`
		Type  string  `xml:"type,attr,omitempty"`
		Align string  `xml:"align,attr,omitempty"`
		Font  string  `xml:"font,attr,omitempty"`
		Color string  `xml:"color,attr,omitempty"`
		Text  string  `xml:",chardata"`
	}
	markupList struct {
		Xp    float64  `xml:"xp,attr"`
		Yp    float64  `xml:"yp,attr"`
		Sp    float64  `xml:"sp,attr"`
		Wp    float64  `xml:"wp,attr,omitempty"`
		Type  string   `xml:"type,attr,omitempty"`
		Color string   `xml:"color,attr,omitempty"`
		Items []string `xml:"li"`
	}
)

// wrap widths in characters for the centered layouts
const (
	titleWrap = 34
	quoteWrap = 48
)

// DeckMarkup returns p as deck XML, the format the ajstarks/deck tools read.
func (r *Renderer) DeckMarkup(p *models.Presentation) ([]byte, error) {
	m := markupDeck{
		Title:  r.text.Plain(p.Title),
		Canvas: markupCanvas{Width: r.width, Height: r.height},
	}
	for _, s := range p.Slides {
		ms, err := r.slideMarkup(s)
		if err != nil {
			return nil, err
		}
		m.Slides = append(m.Slides, ms)
	}
	return encodeMarkup(m)
}

func encodeMarkup(m markupDeck) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode deck markup: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// parseDeck decodes deck XML, defaulting the canvas to width x height.
func parseDeck(data []byte, width, height int) (*deck.Deck, error) {
	var d deck.Deck
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deck markup: %w", err)
	}
	if d.Canvas.Width == 0 {
		d.Canvas.Width = width
	}
	if d.Canvas.Height == 0 {
		d.Canvas.Height = height
	}
	return &d, nil
}

// slideMarkup lays out one slide on a percentage grid with the origin at
// the bottom left.
func (r *Renderer) slideMarkup(s models.Slide) (markupSlide, error) {
	th := r.theme
	sec := slideSections(s)
	out := markupSlide{Bg: th.Background, Fg: th.Foreground}
	heading := r.text.Plain(sec.heading)

	switch s.Layout {
	case models.LayoutTitle:
		if heading == "" {
			heading = fmt.Sprintf("Slide %d", s.Order+1)
		}
		out.Texts = append(out.Texts, markupText{
			Xp:   50, Yp: 58, Sp: 5.5, Align: "center",
			Text: wrapText(heading, titleWrap),
		})
		out.Rects = append(out.Rects, markupRect{Xp: 50, Yp: 48, Wp: 20, Hp: 0.6, Color: th.Accent})
		if sub := r.text.Plain(sec.subheading); sub != "" {
			out.Texts = append(out.Texts, markupText{
				Xp:   50, Yp: 38, Sp: 2.8, Align: "center", Color: th.Accent,
				Text: wrapText(sub, titleWrap*2),
			})
		}
		return out, nil

	case models.LayoutQuote:
		quote := r.text.Plain(sec.quote)
		out.Texts = append(out.Texts, markupText{
			Xp:   50, Yp: 60, Sp: 3.6, Align: "center", Font: "serif",
			Text: wrapText("“"+quote+"”", quoteWrap),
		})
		if author := r.text.Plain(sec.author); author != "" {
			out.Texts = append(out.Texts, markupText{
				Xp:   50, Yp: 25, Sp: 2.2, Align: "center", Color: th.Accent,
				Text: "- " + author,
			})
		}
		return out, nil
	}

	if heading != "" {
		out.Texts = append(out.Texts, markupText{Xp: 6, Yp: 88, Sp: 4, Text: heading})
		out.Rects = append(out.Rects, markupRect{Xp: 50, Yp: 82, Wp: 88, Hp: 0.4, Color: th.Accent})
	}

	switch s.Layout {
	case models.LayoutTwoColumn, models.LayoutComparison:
		for i, part := range sec.parts {
			x := 6.0 + float64(i)*48
			if label := r.text.Plain(part.label); label != "" {
				out.Texts = append(out.Texts, markupText{Xp: x, Yp: 74, Sp: 2.8, Color: th.Accent, Text: label})
			}
			if err := r.body(&out, part.body, x, 66, 40); err != nil {
				return out, err
			}
		}

	case models.LayoutImageLeft, models.LayoutImageRight:
		imageX, textX := 74.0, 6.0
		if sec.imageLeft {
			imageX, textX = 26, 54
		}
		r.image(&out, sec.image, r.text.Plain(sec.imageAlt), imageX, 45, 40)
		if len(sec.parts) > 0 {
			if err := r.body(&out, sec.parts[0].body, textX, 72, 40); err != nil {
				return out, err
			}
		}

	case models.LayoutFullImage:
		r.image(&out, sec.image, r.text.Plain(sec.subheading), 50, 44, 80)

	default:
		if len(sec.parts) > 0 {
			if err := r.body(&out, sec.parts[0].body, 6, 72, 86); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// body places an HTML fragment as a bullet list when it has list items and
// as a wrapped text block otherwise.
func (r *Renderer) body(out *markupSlide, fragment string, xp, yp, wp float64) error {
	md, err := r.text.Markdown(fragment)
	if err != nil {
		return err
	}
	items, bullets := bodyItems(md)
	if len(items) == 0 {
		return nil
	}
	if bullets {
		out.Lists = append(out.Lists, markupList{Xp: xp, Yp: yp, Sp: 2.4, Wp: wp, Type: "bullet", Items: items})
		return nil
	}
	out.Texts = append(out.Texts, markupText{
		Xp:   xp, Yp: yp, Sp: 2.4, Wp: wp, Type: "block",
		Text: strings.Join(items, " \\n "),
	})
	return nil
}

func (r *Renderer) image(out *markupSlide, url, caption string, xp, yp, wp float64) {
	if url == "" {
		out.Rects = append(out.Rects, markupRect{Xp: xp, Yp: yp, Wp: wp, Hp: wp * 0.75 * float64(r.width) / float64(r.height), Color: "rgb(226,232,240)"})
		if caption != "" {
			out.Texts = append(out.Texts, markupText{Xp: xp, Yp: yp, Sp: 2, Align: "center", Text: caption})
		}
		return
	}
	w := int(float64(r.width) * wp / 100)
	out.Images = append(out.Images, markupImage{
		Name:    url,
		Xp:      xp,
		Yp:      yp,
		Width:   w,
		Height:  w * 3 / 4,
		Caption: caption,
	})
}

// bodyItems splits converted Markdown into display lines with the inline
// markers removed. bullets is true when any line was a list item.
func bodyItems(md string) (items []string, bullets bool) {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range []string{"- ", "* ", "+ "} {
			if strings.HasPrefix(line, marker) {
				line = line[len(marker):]
				bullets = true
				break
			}
		}
		if dot := strings.Index(line, ". "); dot > 0 && isDigits(line[:dot]) {
			line = line[dot+2:]
			bullets = true
		}
		line = strings.TrimSpace(markdownMarkers.Replace(line))
		if line != "" {
			items = append(items, line)
		}
	}
	return items, bullets
}

// wrapText breaks s into lines of at most width runes at word boundaries.
func wrapText(s string, width int) string {
	var lines []string
	var line []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		if len(line) > 0 && len(line)+1+len(w) > width {
			lines = append(lines, string(line))
			line = line[:0]
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return strings.Join(lines, "\n")
}
