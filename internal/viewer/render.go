package viewer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ajstarks/deck"
	svg "github.com/ajstarks/svgo/float"
	lru "github.com/hashicorp/golang-lru/v2"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

const (
	linespacing  = 1.4
	listspacing  = 2.0
	defaultColor = "rgb(127,127,127)"
	fillfmt      = "fill:%s;fill-opacity:%.2f"
)

// RenderOptions configures a Renderer. Zero values pick defaults.
type RenderOptions struct {
	Width     int
	Height    int
	Theme     Theme
	CacheSize int
	Fonts     map[string]string
	Text      *TextRenderer
	Logger    *slog.Logger
}

// Renderer draws slides as SVG through the deck model. Output for a slide is
// cached by its content and the theme. Safe for concurrent use.
type Renderer struct {
	width  int
	height int
	theme  Theme
	fonts  map[string]string
	text   *TextRenderer
	cache  *lru.Cache[string, []byte]
	logger *slog.Logger
}

// NewRenderer returns a 16:9 renderer unless opts say otherwise.
func NewRenderer(opts RenderOptions) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Theme == (Theme{}) {
		opts.Theme = DefaultTheme
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.Text == nil {
		opts.Text = NewTextRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fonts := map[string]string{
		"sans":  "Helvetica, Arial, sans-serif",
		"serif": "Georgia, Times, serif",
		"mono":  "Monaco, Consolas, monospace",
	}
	for k, v := range opts.Fonts {
		fonts[k] = v
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}
	return &Renderer{
		width:  opts.Width,
		height: opts.Height,
		theme:  opts.Theme,
		fonts:  fonts,
		text:   opts.Text,
		cache:  cache,
		logger: opts.Logger,
	}, nil
}

// Text returns the renderer's text renderer.
func (r *Renderer) Text() *TextRenderer { return r.text }

// SVG renders slide index of p.
func (r *Renderer) SVG(p *models.Presentation, index int) ([]byte, error) {
	if index < 0 || index >= len(p.Slides) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("slide %d not found", index)}
	}
	s := p.Slides[index]
	key, err := r.cacheKey(s)
	if err != nil {
		return nil, err
	}
	if out, ok := r.cache.Get(key); ok {
		return out, nil
	}

	ms, err := r.slideMarkup(s)
	if err != nil {
		return nil, err
	}
	data, err := encodeMarkup(markupDeck{
		Canvas: markupCanvas{Width: r.width, Height: r.height},
		Slides: []markupSlide{ms},
	})
	if err != nil {
		return nil, err
	}
	d, err := parseDeck(data, r.width, r.height)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	r.svgslide(svg.New(&buf), d, 0)
	out := buf.Bytes()
	r.cache.Add(key, out)
	r.logger.Debug("rendered slide", "slide_id", s.ID, "bytes", len(out))
	return out, nil
}

// WriteSVG renders slide index of p to w.
func (r *Renderer) WriteSVG(w io.Writer, p *models.Presentation, index int) error {
	out, err := r.SVG(p, index)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Purge drops every cached rendering.
func (r *Renderer) Purge() { r.cache.Purge() }

func (r *Renderer) cacheKey(s models.Slide) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("hash slide: %w", err)
	}
	h := sha256.New()
	h.Write(raw)
	fmt.Fprintf(h, "|%s|%s|%s|%dx%d", r.theme.Background, r.theme.Foreground, r.theme.Accent, r.width, r.height)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// svgslide draws slide n of d as one SVG document.
func (r *Renderer) svgslide(doc *svg.SVG, d *deck.Deck, n int) {
	cw := float64(d.Canvas.Width)
	ch := float64(d.Canvas.Height)
	slide := d.Slide[n]

	doc.Start(cw, ch)
	if slide.Bg != "" {
		dorect(doc, 0, 0, cw, ch, slide.Bg, 0)
	}
	if slide.Fg == "" {
		slide.Fg = "black"
	}

	for _, im := range slide.Image {
		x, y, _ := dimen(cw, ch, im.Xp, im.Yp, 0)
		iw, ih := float64(im.Width), float64(im.Height)
		midx, midy := iw/2, ih/2
		doc.Image(x-midx, y-midy, int(iw), int(ih), im.Name)
		if im.Caption != "" {
			capsize := deck.Pwidth(im.Sp, cw, pct(1.6, cw))
			showtext(doc, x, y+midy+(capsize*2), im.Caption, capsize, r.font("sans"), slide.Fg, "center")
		}
	}

	for _, rect := range slide.Rect {
		x, y, _ := dimen(cw, ch, rect.Xp, rect.Yp, 0)
		w, h := pct(rect.Wp, cw), pct(rect.Hp, ch)
		if rect.Color == "" {
			rect.Color = defaultColor
		}
		dorect(doc, x-(w/2), y-(h/2), w, h, rect.Color, rect.Opacity)
	}

	for _, t := range slide.Text {
		if t.Color == "" {
			t.Color = slide.Fg
		}
		if t.Lp == 0 {
			t.Lp = linespacing
		}
		x, y, fs := dimen(cw, ch, t.Xp, t.Yp, t.Sp)
		r.dotext(doc, cw, x, y, fs, t.Wp, t.Lp, t.Tdata, r.font(t.Font), t.Align, t.Type, t.Color, t.Opacity)
	}

	for _, l := range slide.List {
		if l.Color == "" {
			l.Color = slide.Fg
		}
		if l.Lp == 0 {
			l.Lp = listspacing
		}
		x, y, fs := dimen(cw, ch, l.Xp, l.Yp, l.Sp)
		r.dolist(doc, x, y, fs, pct(l.Wp, cw), l.Lp, l.Li, r.font(l.Font), l.Type, l.Color, l.Opacity)
	}
	doc.End()
}

func (r *Renderer) font(name string) string {
	if f, ok := r.fonts[name]; ok {
		return f
	}
	return r.fonts["sans"]
}

// pct converts a percentage to canvas units.
func pct(p, m float64) float64 {
	return (p / 100.0) * m
}

// dimen converts percentage coordinates to canvas coordinates, flipping y.
func dimen(w, h, xp, yp, sp float64) (float64, float64, float64) {
	return pct(xp, w), pct(100-yp, h), pct(sp, w)
}

// setop maps deck opacity to SVG: 0 is opaque, negative is transparent,
// anything else is a percentage.
func setop(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 0:
		return v / 100
	}
	return 1
}

func fillop(color string, opacity float64) string {
	return fmt.Sprintf(fillfmt, color, setop(opacity))
}

func dorect(doc *svg.SVG, x, y, w, h float64, color string, opacity float64) {
	doc.Rect(x, y, w, h, fillop(color, opacity))
}

func textalign(s string) string {
	switch s {
	case "center", "middle", "mid", "c":
		return "middle"
	case "right", "end", "e":
		return "end"
	}
	return "start"
}

func showtext(doc *svg.SVG, x, y float64, s string, fs float64, font, color, align string) {
	doc.Text(x, y, s, `xml:space="preserve"`,
		fmt.Sprintf("fill:%s;font-size:%.2fpx;font-family:%s;text-anchor:%s", color, fs, font, textalign(align)))
}

func (r *Renderer) dotext(doc *svg.SVG, cw, x, y, fs, wp, ls float64, tdata, font, align, ttype, color string, opacity float64) {
	ls *= fs
	if ttype == "block" {
		tw := cw / 2
		if wp > 0 {
			tw = pct(wp, cw)
		}
		textwrap(doc, x, y, tw, fs, ls, tdata, font, color, opacity)
		return
	}
	for _, line := range strings.Split(tdata, "\n") {
		showtext(doc, x, y, line, fs, font, color, align)
		y += ls
	}
}

// textwrap fills lines up to width w; a literal \n token ends a paragraph.
func textwrap(doc *svg.SVG, x, y, w, fs, leading float64, s, font, color string, opacity float64) {
	doc.Gstyle(fmt.Sprintf("fill-opacity:%.2f;fill:%s;font-family:%s;font-size:%.2fpx", setop(opacity), color, font, fs))
	var line string
	flush := func() {
		if line != "" {
			doc.Text(x, y, strings.TrimSpace(line), `xml:space="preserve"`)
			y += leading
			line = ""
		}
	}
	for _, word := range strings.Fields(s) {
		if word == `\n` {
			flush()
			y += leading / 2
			continue
		}
		if line != "" && fs*float64(len(line)+len(word))*0.5 > w {
			flush()
		}
		line += word + " "
	}
	flush()
	doc.Gend()
}

func (r *Renderer) dolist(doc *svg.SVG, x, y, fs, w, spacing float64, items []deck.ListItem, font, ltype, color string, opacity float64) {
	doc.Gstyle(fmt.Sprintf("fill-opacity:%.2f;fill:%s;font-family:%s;font-size:%.2fpx", setop(opacity), color, font, fs))
	if ltype == "bullet" {
		x += fs
	}
	ls := spacing * fs
	for i, item := range items {
		text := item.ListText
		switch ltype {
		case "number":
			text = fmt.Sprintf("%d. %s", i+1, text)
		case "bullet":
			bullet(doc, x, y, fs, color)
		}
		for j, line := range strings.Split(wrapText(text, wrapWidth(w, fs)), "\n") {
			if j > 0 {
				y += fs * linespacing
			}
			doc.Text(x, y, line, `xml:space="preserve"`)
		}
		y += ls
	}
	doc.Gend()
}

// wrapWidth estimates how many characters of size fs fit in w.
func wrapWidth(w, fs float64) int {
	if w <= 0 || fs <= 0 {
		return 80
	}
	return max(int(w/(fs*0.5)), 10)
}

func bullet(doc *svg.SVG, x, y, size float64, color string) {
	rs := size / 2
	doc.Circle(x-size, y-(rs*2)/3, rs/2, "fill:"+color)
}
