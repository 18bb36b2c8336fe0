// Package editor owns one presentation for the length of an edit session:
// slide CRUD, undo/redo and debounced autosave.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidegenie/internal/config"
	"slidegenie/internal/debounce"
	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/schedule"
)

// Saver persists a presentation. It is satisfied by the gateway client.
type Saver interface {
	UpdatePresentation(ctx context.Context, p *models.Presentation) (*models.Presentation, error)
}

// Journal keeps a local copy of edits that failed to save.
type Journal interface {
	SaveDraft(ctx context.Context, p *models.Presentation, cause error) error
	DeleteDrafts(ctx context.Context, presentationID string) error
}

// Options configures an Editor. Zero values pick defaults.
type Options struct {
	AutosaveDelay time.Duration
	SaveTimeout   time.Duration
	Scheduler     schedule.Scheduler
	Journal       Journal
	Logger        *slog.Logger
	NewID         func() string
	Now           func() time.Time
	// HistoryLimit caps the undo stack. Zero keeps every snapshot.
	HistoryLimit int
}

// State is a read-only view of the session for rendering.
type State struct {
	Presentation      *models.Presentation
	Selected          int
	HasUnsavedChanges bool
	Saving            bool
	LastSaved         time.Time
	LastError         error
	CanUndo           bool
	CanRedo           bool
}

// Editor is safe for concurrent use. Every mutation replaces the current
// presentation with a modified copy; snapshots in the history are never
// touched after they are pushed.
type Editor struct {
	mu       sync.Mutex
	current  *models.Presentation
	history  *History
	selected int

	unsaved   bool
	saving    bool
	saveDone  chan struct{}
	closed    bool
	revision  uint64
	lastSaved time.Time
	lastErr   error

	saver       Saver
	journal     Journal
	autosave    *debounce.Task
	saveTimeout time.Duration
	logger      *slog.Logger
	newID       func() string
	now         func() time.Time
}

// New starts an edit session on p.
func New(p *models.Presentation, saver Saver, opts Options) *Editor {
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = config.DefaultAutosaveDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = config.DefaultHTTPTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	start := p.Clone()
	start.Slides = models.Renumber(start.Slides)

	e := &Editor{
		current:     start,
		history:     NewHistory(start, opts.HistoryLimit),
		saver:       saver,
		journal:     opts.Journal,
		saveTimeout: opts.SaveTimeout,
		logger:      opts.Logger.With("presentation_id", p.ID),
		newID:       opts.NewID,
		now:         opts.Now,
	}
	e.autosave = debounce.New(opts.AutosaveDelay, e.autosaveNow, opts.Scheduler)
	return e
}

// State returns a snapshot of the session.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Presentation:      e.current.Clone(),
		Selected:          e.selected,
		HasUnsavedChanges: e.unsaved,
		Saving:            e.saving,
		LastSaved:         e.lastSaved,
		LastError:         e.lastErr,
		CanUndo:           e.history.CanUndo(),
		CanRedo:           e.history.CanRedo(),
	}
}

// Presentation returns a copy of the current presentation.
func (e *Editor) Presentation() *models.Presentation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// Selected returns the selected slide index.
func (e *Editor) Selected() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Select changes the selected slide.
func (e *Editor) Select(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return err
	}
	e.selected = index
	return nil
}

// UpdateSlide merges patch into the slide at index.
func (e *Editor) UpdateSlide(index int, patch models.SlidePatch) error {
	e.mu.Lock()
	if err := e.checkIndex(index); err != nil {
		e.mu.Unlock()
		return err
	}
	slides := models.CloneSlides(e.current.Slides)
	slides[index] = patch.Apply(slides[index])
	e.commitLocked(slides)
	e.mu.Unlock()

	e.autosave.Trigger()
	return nil
}

// AddSlide inserts a blank title-content slide after index after, or at the
// end when after is negative, and selects it. It returns the new index.
func (e *Editor) AddSlide(after int) (int, error) {
	e.mu.Lock()
	at := len(e.current.Slides)
	if after >= 0 {
		if err := e.checkIndex(after); err != nil {
			e.mu.Unlock()
			return 0, err
		}
		at = after + 1
	}
	slide := models.Slide{
		ID:      e.newID(),
		Layout:  models.LayoutTitleContent,
		Content: models.TextContent{Title: "New Slide"},
	}
	e.commitLocked(insertAt(e.current.Slides, at, slide))
	e.selected = at
	e.mu.Unlock()

	e.autosave.Trigger()
	return at, nil
}

// DuplicateSlide copies the slide at index under a new ID, inserts the copy
// right after it and selects the copy.
func (e *Editor) DuplicateSlide(index int) (int, error) {
	e.mu.Lock()
	if err := e.checkIndex(index); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	dup := e.current.Slides[index]
	dup.ID = e.newID()
	e.commitLocked(insertAt(e.current.Slides, index+1, dup))
	e.selected = index + 1
	e.mu.Unlock()

	e.autosave.Trigger()
	return index + 1, nil
}

// DeleteSlide removes the slide at index. With a single slide left it does
// nothing and returns false.
func (e *Editor) DeleteSlide(index int) (bool, error) {
	e.mu.Lock()
	if err := e.checkIndex(index); err != nil {
		e.mu.Unlock()
		return false, err
	}
	if len(e.current.Slides) <= 1 {
		e.mu.Unlock()
		return false, nil
	}

	old := e.current.Slides
	slides := make([]models.Slide, 0, len(old)-1)
	slides = append(slides, old[:index]...)
	slides = append(slides, old[index+1:]...)
	e.commitLocked(slides)
	if e.selected >= len(slides) {
		e.selected = len(slides) - 1
	}
	e.mu.Unlock()

	e.autosave.Trigger()
	return true, nil
}

// ReorderSlides moves the slide at from to position to and selects it.
func (e *Editor) ReorderSlides(from, to int) error {
	e.mu.Lock()
	if err := e.checkIndex(from); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.checkIndex(to); err != nil {
		e.mu.Unlock()
		return err
	}
	if from == to {
		e.selected = to
		e.mu.Unlock()
		return nil
	}

	old := e.current.Slides
	moved := old[from]
	rest := make([]models.Slide, 0, len(old)-1)
	rest = append(rest, old[:from]...)
	rest = append(rest, old[from+1:]...)
	e.commitLocked(insertAt(rest, to, moved))
	e.selected = to
	e.mu.Unlock()

	e.autosave.Trigger()
	return nil
}

// UpdatePresentation changes presentation-level fields.
func (e *Editor) UpdatePresentation(patch models.PresentationPatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return &domain.ValidationError{Message: "title cannot be empty"}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown status %q", *patch.Status)}
	}

	e.mu.Lock()
	next := patch.Apply(e.current)
	e.current = next
	e.history.Push(next)
	e.markChangedLocked()
	e.mu.Unlock()

	e.autosave.Trigger()
	return nil
}

// RecoverDraft replaces the session's presentation with a journalled draft
// of the same presentation. The draft becomes a new history entry and an
// unsaved change, so the next autosave writes it back.
func (e *Editor) RecoverDraft(draft *models.Presentation) error {
	e.mu.Lock()
	if draft == nil || draft.ID != e.current.ID {
		e.mu.Unlock()
		return &domain.ValidationError{Message: "draft belongs to a different presentation"}
	}
	next := draft.Clone()
	next.Slides = models.Renumber(next.Slides)
	e.current = next
	e.history.Push(next)
	if e.selected >= len(next.Slides) {
		e.selected = max(len(next.Slides)-1, 0)
	}
	e.markChangedLocked()
	e.mu.Unlock()

	e.logger.Info("recovered unsaved draft", "slides", len(next.Slides))
	e.autosave.Trigger()
	return nil
}

// Undo restores the previous snapshot. It returns false at the oldest entry.
// The restored state counts as an unsaved change.
func (e *Editor) Undo() bool {
	return e.travel((*History).Undo)
}

// Redo re-applies the next snapshot. It returns false at the newest entry.
func (e *Editor) Redo() bool {
	return e.travel((*History).Redo)
}

func (e *Editor) travel(step func(*History) (*models.Presentation, bool)) bool {
	e.mu.Lock()
	p, ok := step(e.history)
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.current = p
	if e.selected >= len(p.Slides) {
		e.selected = max(len(p.Slides)-1, 0)
	}
	e.markChangedLocked()
	e.mu.Unlock()

	e.autosave.Trigger()
	return true
}

// commitLocked installs a renumbered copy of slides and records it.
func (e *Editor) commitLocked(slides []models.Slide) {
	next := *e.current
	next.Slides = models.Renumber(slides)
	e.current = &next
	e.history.Push(&next)
	e.markChangedLocked()
}

func (e *Editor) markChangedLocked() {
	e.unsaved = true
	e.revision++
}

func (e *Editor) checkIndex(index int) error {
	if index < 0 || index >= len(e.current.Slides) {
		return &domain.ValidationError{Message: fmt.Sprintf("slide index %d out of range [0,%d)", index, len(e.current.Slides))}
	}
	return nil
}

// insertAt returns a new slice with s placed at index at.
func insertAt(slides []models.Slide, at int, s models.Slide) []models.Slide {
	out := make([]models.Slide, 0, len(slides)+1)
	out = append(out, slides[:at]...)
	out = append(out, s)
	out = append(out, slides[at:]...)
	return out
}
