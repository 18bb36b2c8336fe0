// Package viewer presents a finished deck: keyboard navigation, overlay
// state, SVG and terminal rendering, and a local preview server.
package viewer

import (
	"fmt"
	"sync"

	"slidegenie/internal/domain"
)

// Key names follow the DOM KeyboardEvent.key values the browser viewer used.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeySpace      = " "
	KeyEnter      = "Enter"
	KeyHome       = "Home"
	KeyEnd        = "End"
	KeyEscape     = "Escape"
)

// State is the navigator's observable state.
type State struct {
	Index      int  `json:"index"`
	Total      int  `json:"total"`
	Fullscreen bool `json:"fullscreen"`
	Grid       bool `json:"grid"`
	Presenter  bool `json:"presenter"`
	Shortcuts  bool `json:"shortcuts"`
}

// AtStart reports whether the first slide is shown.
func (s State) AtStart() bool { return s.Index == 0 }

// AtEnd reports whether the last slide is shown.
func (s State) AtEnd() bool { return s.Total == 0 || s.Index == s.Total-1 }

// Position is the one-based "n / total" label.
func (s State) Position() string {
	if s.Total == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", s.Index+1, s.Total)
}

// Navigator tracks the current slide and which overlays are open. Navigation
// clamps at both ends. Watchers always see the latest state; intermediate
// states may be skipped when a watcher falls behind.
type Navigator struct {
	mu       sync.Mutex
	state    State
	watchers map[int]chan State
	nextID   int
}

// NewNavigator starts on the first of total slides.
func NewNavigator(total int) *Navigator {
	return &Navigator{
		state:    State{Total: max(total, 0)},
		watchers: make(map[int]chan State),
	}
}

// State returns the current state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// HandleKey applies one key press and reports whether the key is bound.
func (n *Navigator) HandleKey(key string) bool {
	switch key {
	case KeyArrowLeft:
		n.Prev()
	case KeyArrowRight, KeySpace, "Space", KeyEnter:
		n.Next()
	case KeyHome:
		n.First()
	case KeyEnd:
		n.Last()
	case "f", "F":
		n.ToggleFullscreen()
	case "g", "G":
		n.ToggleGrid()
	case "p", "P":
		n.TogglePresenter()
	case "?":
		n.ToggleShortcuts()
	case KeyEscape:
		n.CloseOverlays()
	default:
		return false
	}
	return true
}

// Next advances one slide unless the last one is shown.
func (n *Navigator) Next() {
	n.update(func(s *State) {
		if s.Index < s.Total-1 {
			s.Index++
		}
	})
}

// Prev goes back one slide unless the first one is shown.
func (n *Navigator) Prev() {
	n.update(func(s *State) {
		if s.Index > 0 {
			s.Index--
		}
	})
}

// First jumps to the first slide.
func (n *Navigator) First() {
	n.update(func(s *State) { s.Index = 0 })
}

// Last jumps to the last slide.
func (n *Navigator) Last() {
	n.update(func(s *State) { s.Index = max(s.Total-1, 0) })
}

// GoTo shows slide i and closes the thumbnail grid.
func (n *Navigator) GoTo(i int) error {
	var err error
	n.update(func(s *State) {
		if i < 0 || i >= s.Total {
			err = &domain.ValidationError{Message: fmt.Sprintf("slide %d out of range [0,%d)", i, s.Total)}
			return
		}
		s.Index = i
		s.Grid = false
	})
	return err
}

// SetTotal changes the slide count, keeping the index in range.
func (n *Navigator) SetTotal(total int) {
	n.update(func(s *State) {
		s.Total = max(total, 0)
		if s.Index >= s.Total {
			s.Index = max(s.Total-1, 0)
		}
	})
}

func (n *Navigator) ToggleFullscreen() { n.update(func(s *State) { s.Fullscreen = !s.Fullscreen }) }
func (n *Navigator) ToggleGrid()       { n.update(func(s *State) { s.Grid = !s.Grid }) }
func (n *Navigator) TogglePresenter()  { n.update(func(s *State) { s.Presenter = !s.Presenter }) }
func (n *Navigator) ToggleShortcuts()  { n.update(func(s *State) { s.Shortcuts = !s.Shortcuts }) }

// CloseOverlays leaves every overlay and fullscreen.
func (n *Navigator) CloseOverlays() {
	n.update(func(s *State) {
		s.Grid = false
		s.Presenter = false
		s.Shortcuts = false
		s.Fullscreen = false
	})
}

// Watch returns a channel that receives the current state and every later
// change until cancel is called.
func (n *Navigator) Watch() (<-chan State, func()) {
	ch := make(chan State, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.watchers[id] = ch
	ch <- n.state
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.watchers, id)
			n.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (n *Navigator) update(fn func(*State)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	before := n.state
	fn(&n.state)
	if n.state == before {
		return
	}
	for _, ch := range n.watchers {
		// replace an unread state with the newer one
		select {
		case <-ch:
		default:
		}
		ch <- n.state
	}
}
