package viewer

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"slidegenie/internal/domain/models"
)

// SpeakingRate is the words-per-minute pace used for speaking time estimates.
const SpeakingRate = 130

// NotesInfo summarizes the speaker notes of one slide.
type NotesInfo struct {
	Text         string        `json:"text"`
	Words        int           `json:"words"`
	SpeakingTime time.Duration `json:"speakingTime"`
}

// PresenterInfo is what the presenter view shows next to the current slide.
type PresenterInfo struct {
	Notes     NotesInfo `json:"notes"`
	NextTitle string    `json:"nextTitle,omitempty"`
	NextNotes string    `json:"nextNotes,omitempty"`
	HasNext   bool      `json:"hasNext"`
}

// Presenter builds the presenter panel for slide index of slides.
func Presenter(slides []models.Slide, index int, text *TextRenderer) PresenterInfo {
	var info PresenterInfo
	if index < 0 || index >= len(slides) {
		return info
	}
	info.Notes = Notes(slides[index].Notes)
	if index+1 < len(slides) {
		next := slides[index+1]
		info.HasNext = true
		info.NextTitle = text.Plain(slideSections(next).heading)
		if info.NextTitle == "" {
			info.NextTitle = "Next Slide"
		}
		info.NextNotes = next.Notes
	}
	return info
}

// Notes counts the words of markdown notes and estimates speaking time,
// rounded up to whole seconds.
func Notes(notes string) NotesInfo {
	words := CountWords(notes)
	secs := math.Ceil(float64(words) * 60 / SpeakingRate)
	return NotesInfo{
		Text:         notes,
		Words:        words,
		SpeakingTime: time.Duration(secs) * time.Second,
	}
}

// CountWords counts whitespace-separated words once Markdown syntax is
// stripped.
func CountWords(markdown string) int {
	count := 0
	for _, w := range strings.FieldsFunc(stripMarkdown(markdown), unicode.IsSpace) {
		if strings.IndexFunc(w, isWordRune) >= 0 {
			count++
		}
	}
	return count
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

var markdownMarkers = strings.NewReplacer(
	"`", "",
	"**", "",
	"__", "",
	"~~", "",
	"*", "",
	"#", "",
	">", "",
)

func stripMarkdown(text string) string {
	text = dropFences(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if dot := strings.Index(line, ". "); dot > 0 && isDigits(line[:dot]) {
			line = line[dot+2:]
		}
		lines[i] = line
	}
	return markdownMarkers.Replace(strings.Join(lines, " "))
}

// dropFences removes ``` fenced blocks. An unterminated fence is kept.
func dropFences(text string) string {
	for {
		start := strings.Index(text, "```")
		if start < 0 {
			return text
		}
		end := strings.Index(text[start+3:], "```")
		if end < 0 {
			return text
		}
		text = text[:start] + text[start+3+end+3:]
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Timer is the presenter's start/pause stopwatch.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	running bool
	elapsed time.Duration
}

// NewTimer returns a stopped timer. A nil now uses time.Now.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Toggle starts a stopped timer or pauses a running one.
func (t *Timer) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.elapsed += t.now().Sub(t.started)
		t.running = false
		return
	}
	t.started = t.now()
	t.running = true
}

// Reset stops the timer at zero.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.elapsed = 0
}

// Running reports whether the timer is counting.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the accumulated time.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return t.elapsed + t.now().Sub(t.started)
	}
	return t.elapsed
}

// String formats the elapsed time as MM:SS.
func (t *Timer) String() string {
	return FormatClock(t.Elapsed())
}

// FormatClock formats d as MM:SS, growing the minutes field past 99.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
