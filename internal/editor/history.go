package editor

import "slidegenie/internal/domain/models"

// History is a linear undo/redo stack of presentation snapshots. The cursor
// always points at a valid entry; pushing after an undo discards the redo tail.
type History struct {
	entries []*models.Presentation
	cursor  int
	limit   int
}

// NewHistory starts a history at initial. limit <= 0 means unbounded.
func NewHistory(initial *models.Presentation, limit int) *History {
	return &History{
		entries: []*models.Presentation{initial.Clone()},
		limit:   limit,
	}
}

// Push records p as the state after the cursor and moves the cursor to it.
// When the limit is exceeded the oldest entry is dropped.
func (h *History) Push(p *models.Presentation) {
	h.entries = append(h.entries[:h.cursor+1:h.cursor+1], p.Clone())
	h.cursor = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]*models.Presentation(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
}

// Undo moves the cursor back and returns that snapshot. At the oldest entry
// it returns false.
func (h *History) Undo() (*models.Presentation, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor].Clone(), true
}

// Redo moves the cursor forward and returns that snapshot. At the newest
// entry it returns false.
func (h *History) Redo() (*models.Presentation, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor].Clone(), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Len is the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }

// Cursor is the index of the current snapshot.
func (h *History) Cursor() int { return h.cursor }

// Current returns a copy of the snapshot at the cursor.
func (h *History) Current() *models.Presentation { return h.entries[h.cursor].Clone() }
