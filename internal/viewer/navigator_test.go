package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidegenie/internal/domain"
)

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name  string
		start int
		keys  []string
		want  State
	}{
		{"right advances", 0, []string{KeyArrowRight}, State{Index: 1, Total: 5}},
		{"space and enter advance", 0, []string{KeySpace, KeyEnter, "Space"}, State{Index: 3, Total: 5}},
		{"left at start stays", 0, []string{KeyArrowLeft}, State{Index: 0, Total: 5}},
		{"right at end stays", 4, []string{KeyArrowRight}, State{Index: 4, Total: 5}},
		{"end then home", 2, []string{KeyEnd, KeyHome}, State{Index: 0, Total: 5}},
		{"end", 0, []string{KeyEnd}, State{Index: 4, Total: 5}},
		{"fullscreen toggles", 0, []string{"f"}, State{Total: 5, Fullscreen: true}},
		{"upper case toggles twice", 0, []string{"F", "f"}, State{Total: 5}},
		{"grid", 0, []string{"g"}, State{Total: 5, Grid: true}},
		{"presenter", 0, []string{"P"}, State{Total: 5, Presenter: true}},
		{"shortcuts", 0, []string{"?"}, State{Total: 5, Shortcuts: true}},
		{"escape closes everything", 1, []string{"g", "p", "?", "f", KeyEscape}, State{Index: 1, Total: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := NewNavigator(5)
			if tt.start > 0 {
				require.NoError(t, nav.GoTo(tt.start))
			}
			for _, k := range tt.keys {
				assert.True(t, nav.HandleKey(k), "key %q", k)
			}
			assert.Equal(t, tt.want, nav.State())
		})
	}
}

func TestUnboundKey(t *testing.T) {
	nav := NewNavigator(3)
	assert.False(t, nav.HandleKey("x"))
	assert.Equal(t, State{Total: 3}, nav.State())
}

func TestGoToClosesGrid(t *testing.T) {
	nav := NewNavigator(4)
	nav.ToggleGrid()
	nav.TogglePresenter()

	require.NoError(t, nav.GoTo(2))
	st := nav.State()
	assert.Equal(t, 2, st.Index)
	assert.False(t, st.Grid)
	assert.True(t, st.Presenter, "other overlays stay open")

	err := nav.GoTo(4)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 2, nav.State().Index)
}

func TestEmptyDeck(t *testing.T) {
	nav := NewNavigator(0)
	nav.Next()
	nav.Last()
	nav.Prev()
	st := nav.State()
	assert.Equal(t, 0, st.Index)
	assert.True(t, st.AtStart())
	assert.True(t, st.AtEnd())
	assert.Equal(t, "0 / 0", st.Position())
}

func TestSetTotalClampsIndex(t *testing.T) {
	nav := NewNavigator(10)
	nav.Last()
	nav.SetTotal(3)
	assert.Equal(t, State{Index: 2, Total: 3}, nav.State())
	assert.Equal(t, "3 / 3", nav.State().Position())
}

func TestWatchDeliversLatestState(t *testing.T) {
	nav := NewNavigator(5)
	updates, cancel := nav.Watch()
	defer cancel()

	assert.Equal(t, 0, (<-updates).Index)

	nav.Next()
	nav.Next()
	nav.Next()
	select {
	case st := <-updates:
		assert.Equal(t, 3, st.Index, "a slow watcher skips to the newest state")
	case <-time.After(time.Second):
		t.Fatal("no update")
	}

	nav.First()
	nav.First()
	assert.Equal(t, 0, (<-updates).Index)
	select {
	case st := <-updates:
		t.Fatalf("unchanged state was published: %+v", st)
	default:
	}
}

func TestWatchCancel(t *testing.T) {
	nav := NewNavigator(2)
	updates, cancel := nav.Watch()
	<-updates
	cancel()
	cancel()

	nav.Next()
	_, open := <-updates
	assert.False(t, open)
}

func TestShortcutsCoverBoundKeys(t *testing.T) {
	nav := NewNavigator(2)
	for _, key := range []string{KeyArrowLeft, KeyArrowRight, "F", "G", "P", KeyEscape, "?", KeySpace, KeyEnter, KeyHome, KeyEnd} {
		assert.True(t, nav.HandleKey(key), key)
	}
	assert.Len(t, Shortcuts, 10)
	assert.Equal(t, "Navigate between slides", Shortcuts[0].Description)
}
