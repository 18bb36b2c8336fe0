package progress

import (
	"sync"

	"slidegenie/internal/domain/models"
)

// Snapshot is everything the progress screen renders at one instant.
type Snapshot struct {
	Progress models.GenerationProgress
	Label    string
	Steps    []Step
	ETA      string
	Complete bool
	Live     bool
	Notice   string
	Error    string
}

// ViewModel holds the progress state for one generation job. Live events
// always win; simulated events apply only while no connection is open and
// never move progress backwards.
type ViewModel struct {
	mu       sync.Mutex
	cur      models.GenerationProgress
	complete bool
	live     bool
	notice   string
	err      string
}

// NewViewModel starts a job at analyzing, 0%.
func NewViewModel(generationID string) *ViewModel {
	return &ViewModel{cur: initial(generationID)}
}

func initial(id string) models.GenerationProgress {
	return models.GenerationProgress{ID: id, Stage: models.StageAnalyzing}
}

// ApplyLive records an event from the live channel. It reports true when
// the event is the one that completes the job.
func (v *ViewModel) ApplyLive(p models.GenerationProgress) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.complete {
		return false
	}
	if p.ID == "" {
		p.ID = v.cur.ID
	}
	v.cur = p
	if p.Error != "" {
		v.err = p.Error
	}
	return v.checkCompleteLocked()
}

// ApplySimulated records a simulator step. It is ignored while the live
// channel is connected or when it would lower progress.
func (v *ViewModel) ApplySimulated(p models.GenerationProgress) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.complete || v.live || p.Progress < v.cur.Progress {
		return false
	}
	v.cur = p
	return v.checkCompleteLocked()
}

func (v *ViewModel) checkCompleteLocked() bool {
	if v.cur.IsTerminal() {
		v.complete = true
		return true
	}
	return false
}

// SetLive records whether the live channel is connected.
func (v *ViewModel) SetLive(live bool) {
	v.mu.Lock()
	v.live = live
	if live {
		v.notice = ""
	}
	v.mu.Unlock()
}

// SetNotice sets the non-fatal status line, e.g. while reconnecting.
func (v *ViewModel) SetNotice(msg string) {
	v.mu.Lock()
	v.notice = msg
	v.mu.Unlock()
}

// SetError puts the screen into its error state.
func (v *ViewModel) SetError(msg string) {
	v.mu.Lock()
	v.err = msg
	v.mu.Unlock()
}

// Reset returns to analyzing, 0% and clears errors, keeping the job ID.
func (v *ViewModel) Reset() {
	v.mu.Lock()
	v.cur = initial(v.cur.ID)
	v.complete = false
	v.notice = ""
	v.err = ""
	v.mu.Unlock()
}

// Current returns the latest accepted event.
func (v *ViewModel) Current() models.GenerationProgress {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// IsComplete reports whether a terminal event has been observed.
func (v *ViewModel) IsComplete() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.complete
}

func (v *ViewModel) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	cur := v.cur
	cur.Preview = append([]models.SlidePreview(nil), v.cur.Preview...)
	return Snapshot{
		Progress: cur,
		Label:    Label(cur.Stage),
		Steps:    Steps(cur.Stage),
		ETA:      ETA(cur.Progress),
		Complete: v.complete,
		Live:     v.live,
		Notice:   v.notice,
		Error:    v.err,
	}
}
