package editor

import (
	"context"
	"errors"
)

// ErrSaveInFlight is returned by Save while another save is running.
var ErrSaveInFlight = errors.New("save already in progress")

func (e *Editor) autosaveNow() {
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	if err := e.Save(ctx); err != nil && !errors.Is(err, ErrSaveInFlight) && !e.isClosed() {
		// retry on the next quiet period; an edit in between resets the timer
		e.autosave.Trigger()
	}
}

// Save writes the current presentation through the Saver. Only one save runs
// at a time. Edits made while a save is in flight stay unsaved and schedule
// another autosave once it finishes.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	if !e.unsaved {
		e.mu.Unlock()
		return nil
	}
	e.saving = true
	e.saveDone = make(chan struct{})
	snapshot := e.current.Clone()
	rev := e.revision
	e.mu.Unlock()

	_, err := e.saver.UpdatePresentation(ctx, snapshot)

	e.mu.Lock()
	e.saving = false
	close(e.saveDone)
	if err != nil {
		e.lastErr = err
		e.mu.Unlock()

		e.logger.Error("autosave failed", "error", err, "slides", len(snapshot.Slides))
		if e.journal != nil {
			if jerr := e.journal.SaveDraft(ctx, snapshot, err); jerr != nil {
				e.logger.Warn("failed to journal unsaved draft", "error", jerr)
			}
		}
		return err
	}

	e.lastErr = nil
	e.lastSaved = e.now()
	changedSince := e.revision != rev
	if !changedSince {
		e.unsaved = false
	}
	closed := e.closed
	e.mu.Unlock()

	e.logger.Debug("presentation saved", "slides", len(snapshot.Slides), "pending_edits", changedSince)
	if e.journal != nil {
		if jerr := e.journal.DeleteDrafts(ctx, snapshot.ID); jerr != nil {
			e.logger.Warn("failed to clear draft journal", "error", jerr)
		}
	}
	if changedSince && !closed {
		e.autosave.Trigger()
	}
	return nil
}

// Close stops autosave and, if changes are pending, saves them once. A save
// already running is waited for first so edits made during it are flushed.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.autosave.Cancel()

	for {
		err := e.Save(ctx)
		if !errors.Is(err, ErrSaveInFlight) {
			return err
		}
		e.mu.Lock()
		done := e.saveDone
		e.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
