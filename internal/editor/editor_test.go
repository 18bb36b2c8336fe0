package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/schedule/schedtest"
)

type fakeSaver struct {
	mu      sync.Mutex
	saved   []*models.Presentation
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeSaver) UpdatePresentation(ctx context.Context, p *models.Presentation) (*models.Presentation, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, p.Clone())
	return p, nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeSaver) last() *models.Presentation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[len(f.saved)-1]
}

func (f *fakeSaver) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeJournal struct {
	mu      sync.Mutex
	drafts  map[string]*models.Presentation
	deletes int
}

func (j *fakeJournal) SaveDraft(_ context.Context, p *models.Presentation, _ error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.drafts == nil {
		j.drafts = map[string]*models.Presentation{}
	}
	j.drafts[p.ID] = p.Clone()
	return nil
}

func (j *fakeJournal) DeleteDrafts(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.drafts, id)
	j.deletes++
	return nil
}

func deck(n int) *models.Presentation {
	p := &models.Presentation{ID: "p1", Title: "Deck", Status: models.PresentationStatusDraft}
	for i := 0; i < n; i++ {
		p.Slides = append(p.Slides, models.Slide{
			ID:      fmt.Sprintf("s%d", i),
			Order:   i,
			Layout:  models.LayoutTitleContent,
			Content: models.TextContent{Title: fmt.Sprintf("Slide %d", i)},
		})
	}
	return p
}

func newTestEditor(t *testing.T, p *models.Presentation, saver Saver, opts Options) (*Editor, *schedtest.Fake) {
	t.Helper()
	clock := schedtest.New()
	opts.Scheduler = clock
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := 0
	opts.NewID = func() string {
		ids++
		return fmt.Sprintf("new-%d", ids)
	}
	return New(p, saver, opts), clock
}

func assertContiguous(t *testing.T, p *models.Presentation) {
	t.Helper()
	for i, s := range p.Slides {
		require.Equal(t, i, s.Order, "slide %s at index %d has order %d", s.ID, i, s.Order)
	}
}

func TestOrderStaysContiguousUnderRandomEdits(t *testing.T) {
	ed, _ := newTestEditor(t, deck(3), &fakeSaver{}, Options{})
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 500; step++ {
		n := len(ed.Presentation().Slides)
		switch rng.Intn(4) {
		case 0:
			_, err := ed.AddSlide(rng.Intn(n+1) - 1)
			require.NoError(t, err)
		case 1:
			_, err := ed.DuplicateSlide(rng.Intn(n))
			require.NoError(t, err)
		case 2:
			_, err := ed.DeleteSlide(rng.Intn(n))
			require.NoError(t, err)
		case 3:
			require.NoError(t, ed.ReorderSlides(rng.Intn(n), rng.Intn(n)))
		}
		p := ed.Presentation()
		assertContiguous(t, p)
		require.GreaterOrEqual(t, len(p.Slides), 1)
		require.Less(t, ed.Selected(), len(p.Slides))
	}
}

func TestDeleteLastRemainingSlideIsNoop(t *testing.T) {
	ed, _ := newTestEditor(t, deck(1), &fakeSaver{}, Options{})

	deleted, err := ed.DeleteSlide(0)

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, ed.Presentation().Slides, 1)
	assert.False(t, ed.State().CanUndo, "no history entry for a refused delete")
}

func TestDeleteSelectedLastSlideSelectsNewLast(t *testing.T) {
	ed, _ := newTestEditor(t, deck(3), &fakeSaver{}, Options{})
	require.NoError(t, ed.Select(2))

	deleted, err := ed.DeleteSlide(2)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, ed.Selected())
}

func TestAddSlide(t *testing.T) {
	ed, _ := newTestEditor(t, deck(2), &fakeSaver{}, Options{})

	at, err := ed.AddSlide(0)
	require.NoError(t, err)
	assert.Equal(t, 1, at)
	assert.Equal(t, 1, ed.Selected())

	p := ed.Presentation()
	require.Len(t, p.Slides, 3)
	assert.Equal(t, "new-1", p.Slides[1].ID)
	assert.Equal(t, models.LayoutTitleContent, p.Slides[1].Layout)
	assert.Equal(t, models.TextContent{Title: "New Slide"}, p.Slides[1].Content)
	assert.Equal(t, "s1", p.Slides[2].ID)

	at, err = ed.AddSlide(-1)
	require.NoError(t, err)
	assert.Equal(t, 3, at)

	_, err = ed.AddSlide(7)
	assert.Error(t, err)
}

func TestDuplicateSlide(t *testing.T) {
	ed, _ := newTestEditor(t, deck(2), &fakeSaver{}, Options{})

	at, err := ed.DuplicateSlide(0)

	require.NoError(t, err)
	assert.Equal(t, 1, at)
	p := ed.Presentation()
	require.Len(t, p.Slides, 3)
	assert.Equal(t, "new-1", p.Slides[1].ID)
	assert.Equal(t, p.Slides[0].Content, p.Slides[1].Content)
	assert.Equal(t, 1, ed.Selected())
}

func TestReorderSlides(t *testing.T) {
	ed, _ := newTestEditor(t, deck(4), &fakeSaver{}, Options{})

	require.NoError(t, ed.ReorderSlides(0, 2))

	p := ed.Presentation()
	ids := []string{p.Slides[0].ID, p.Slides[1].ID, p.Slides[2].ID, p.Slides[3].ID}
	assert.Equal(t, []string{"s1", "s2", "s0", "s3"}, ids)
	assert.Equal(t, 2, ed.Selected())
	assertContiguous(t, p)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	original := deck(2)
	ed, _ := newTestEditor(t, original, &fakeSaver{}, Options{})
	title := "Renamed"

	_, _ = ed.AddSlide(-1)
	_, _ = ed.DuplicateSlide(0)
	require.NoError(t, ed.UpdateSlide(1, models.SlidePatch{Title: &title}))
	require.NoError(t, ed.ReorderSlides(0, 3))
	edited := ed.Presentation()

	for i := 0; i < 4; i++ {
		require.True(t, ed.Undo())
	}
	assert.False(t, ed.Undo(), "undo clamps at the oldest snapshot")
	assert.Equal(t, original, ed.Presentation())

	for i := 0; i < 4; i++ {
		require.True(t, ed.Redo())
	}
	assert.False(t, ed.Redo())
	assert.Equal(t, edited, ed.Presentation())
}

func TestEditAfterUndoDiscardsRedo(t *testing.T) {
	ed, _ := newTestEditor(t, deck(1), &fakeSaver{}, Options{})

	_, _ = ed.AddSlide(-1)
	_, _ = ed.AddSlide(-1)
	require.True(t, ed.Undo())
	require.True(t, ed.State().CanRedo)

	_, _ = ed.DuplicateSlide(0)

	assert.False(t, ed.State().CanRedo)
	assert.False(t, ed.Redo())
	assert.Len(t, ed.Presentation().Slides, 3)
}

func TestUpdateSlideDoesNotMutateHistory(t *testing.T) {
	ed, _ := newTestEditor(t, deck(1), &fakeSaver{}, Options{})
	title := "After"

	require.NoError(t, ed.UpdateSlide(0, models.SlidePatch{Title: &title}))
	require.True(t, ed.Undo())

	assert.Equal(t, "", ed.Presentation().Slides[0].Title)
}

func TestUndoRestoresAnyNumberOfEdits(t *testing.T) {
	ed, _ := newTestEditor(t, deck(1), &fakeSaver{}, Options{})
	before := ed.Presentation()

	const edits = 250
	for i := 0; i < edits; i++ {
		_, err := ed.AddSlide(-1)
		require.NoError(t, err)
	}
	require.Len(t, ed.Presentation().Slides, edits+1)

	for i := 0; i < edits; i++ {
		require.True(t, ed.Undo(), "undo %d", i)
	}
	assert.False(t, ed.Undo())
	assert.Equal(t, before.Slides, ed.Presentation().Slides)
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	h := NewHistory(deck(1), 3)
	for i := 0; i < 5; i++ {
		p := deck(1)
		p.Title = fmt.Sprintf("v%d", i)
		h.Push(p)
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Cursor())
	assert.Equal(t, "v4", h.Current().Title)

	h.Undo()
	h.Undo()
	assert.False(t, h.CanUndo())
	assert.Equal(t, "v2", h.Current().Title)
}

func TestUpdatePresentationValidates(t *testing.T) {
	ed, _ := newTestEditor(t, deck(1), &fakeSaver{}, Options{})
	empty := ""
	bogus := models.PresentationStatus("deleted")
	published := models.PresentationStatusPublished

	assert.Error(t, ed.UpdatePresentation(models.PresentationPatch{Title: &empty}))
	assert.Error(t, ed.UpdatePresentation(models.PresentationPatch{Status: &bogus}))
	require.NoError(t, ed.UpdatePresentation(models.PresentationPatch{Status: &published}))
	assert.Equal(t, published, ed.Presentation().Status)
}

func TestAutosaveDebouncesEdits(t *testing.T) {
	saver := &fakeSaver{}
	ed, clock := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Second})

	_, _ = ed.AddSlide(-1)
	clock.Advance(500 * time.Millisecond)
	_, _ = ed.AddSlide(-1)
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, saver.count())

	clock.Advance(500 * time.Millisecond)
	require.Equal(t, 1, saver.count())
	assert.Len(t, saver.last().Slides, 3)
	assert.False(t, ed.State().HasUnsavedChanges)
	assert.False(t, ed.State().LastSaved.IsZero())
}

func TestAutosaveFailureKeepsUnsavedAndRetries(t *testing.T) {
	saver := &fakeSaver{err: errors.New("503")}
	journal := &fakeJournal{}
	ed, clock := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Second, Journal: journal})

	_, _ = ed.AddSlide(-1)
	clock.Advance(time.Second)

	st := ed.State()
	assert.True(t, st.HasUnsavedChanges)
	assert.Error(t, st.LastError)
	assert.Contains(t, journal.drafts, "p1")

	saver.setErr(nil)
	clock.Advance(time.Second)

	assert.Equal(t, 1, saver.count())
	assert.False(t, ed.State().HasUnsavedChanges)
	assert.NoError(t, ed.State().LastError)
	assert.NotContains(t, journal.drafts, "p1")
}

func TestSaveInFlightIsNotDuplicated(t *testing.T) {
	saver := &fakeSaver{release: make(chan struct{}), started: make(chan struct{}, 1)}
	ed, clock := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Second})
	_, _ = ed.AddSlide(-1)

	done := make(chan error, 1)
	go func() { done <- ed.Save(context.Background()) }()
	<-saver.started

	assert.ErrorIs(t, ed.Save(context.Background()), ErrSaveInFlight)

	// edit while the first save is running
	_, _ = ed.AddSlide(-1)
	saver.release <- struct{}{}
	require.NoError(t, <-done)

	assert.True(t, ed.State().HasUnsavedChanges, "edit made during the save is still pending")

	saver.started = nil
	saver.release = nil
	clock.Advance(time.Second)
	assert.Equal(t, 2, saver.count())
	assert.Len(t, saver.last().Slides, 3)
	assert.False(t, ed.State().HasUnsavedChanges)
}

func TestUndoMarksUnsaved(t *testing.T) {
	saver := &fakeSaver{}
	ed, clock := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Second})

	_, _ = ed.AddSlide(-1)
	clock.Advance(time.Second)
	require.False(t, ed.State().HasUnsavedChanges)

	require.True(t, ed.Undo())
	assert.True(t, ed.State().HasUnsavedChanges)

	clock.Advance(time.Second)
	assert.Len(t, saver.last().Slides, 1)
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	saver := &fakeSaver{}
	ed, _ := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Minute})

	_, _ = ed.AddSlide(-1)
	require.NoError(t, ed.Close(context.Background()))

	assert.Equal(t, 1, saver.count())
}

func TestCloseWaitsForSaveInFlight(t *testing.T) {
	saver := &fakeSaver{release: make(chan struct{}), started: make(chan struct{}, 1)}
	ed, clock := newTestEditor(t, deck(1), saver, Options{AutosaveDelay: time.Second})
	_, _ = ed.AddSlide(-1)

	saved := make(chan error, 1)
	go func() { saved <- ed.Save(context.Background()) }()
	<-saver.started

	_, _ = ed.AddSlide(-1)
	closed := make(chan error, 1)
	go func() { closed <- ed.Close(context.Background()) }()

	select {
	case err := <-closed:
		t.Fatalf("Close returned while a save was running: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	saver.release <- struct{}{}
	require.NoError(t, <-saved)
	<-saver.started
	saver.release <- struct{}{}
	require.NoError(t, <-closed)

	assert.Equal(t, 2, saver.count())
	assert.Len(t, saver.last().Slides, 3)
	assert.False(t, ed.State().HasUnsavedChanges)
	assert.Equal(t, 0, clock.Pending(), "a closed editor schedules no autosave")
}

func TestCloseHonoursContextWhileWaiting(t *testing.T) {
	saver := &fakeSaver{release: make(chan struct{}), started: make(chan struct{}, 1)}
	ed, _ := newTestEditor(t, deck(1), saver, Options{})
	_, _ = ed.AddSlide(-1)

	go func() { _ = ed.Save(context.Background()) }()
	<-saver.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ed.Close(ctx), context.DeadlineExceeded)
	saver.release <- struct{}{}
}

func TestRecoverDraft(t *testing.T) {
	saver := &fakeSaver{}
	ed, clock := newTestEditor(t, deck(3), saver, Options{AutosaveDelay: time.Second})
	require.NoError(t, ed.Select(2))

	draft := deck(3)
	draft.Slides = draft.Slides[:1]
	draft.Slides[0].Order = 5
	draft.Title = "Recovered"
	require.NoError(t, ed.RecoverDraft(draft))

	got := ed.Presentation()
	assert.Equal(t, "Recovered", got.Title)
	require.Len(t, got.Slides, 1)
	assertContiguous(t, got)
	assert.Equal(t, 0, ed.Selected())
	assert.True(t, ed.State().HasUnsavedChanges)

	clock.Advance(time.Second)
	require.Equal(t, 1, saver.count())
	assert.Equal(t, "Recovered", saver.last().Title)

	require.True(t, ed.Undo())
	assert.Len(t, ed.Presentation().Slides, 3)

	other := deck(1)
	other.ID = "p2"
	assert.ErrorIs(t, ed.RecoverDraft(other), domain.ErrValidation)
	assert.ErrorIs(t, ed.RecoverDraft(nil), domain.ErrValidation)
}
