package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewport = Size{W: 1920, H: 1080}

func TestResizeClampsToFloor(t *testing.T) {
	w := NewWindow("peer", viewport)
	start := w.Bounds()

	require.NoError(t, w.BeginResize(start.X+start.W, start.Y+start.H))
	// Drag far past the minimum in both axes.
	require.NoError(t, w.ResizeTo(start.X, start.Y))
	w.EndResize()

	b := w.Bounds()
	assert.Equal(t, MinWidth, b.W, "width clamps to exactly the floor")
	assert.Equal(t, MinHeight, b.H, "height clamps to exactly the floor")
}

func TestResizeClampsToViewport(t *testing.T) {
	w := NewWindow("peer", Size{W: 800, H: 600})
	w.DragToOrigin(t)

	b := w.Bounds()
	require.NoError(t, w.BeginResize(b.X+b.W, b.Y+b.H))
	require.NoError(t, w.ResizeTo(b.X+b.W+5000, b.Y+b.H+5000))
	w.EndResize()

	b = w.Bounds()
	assert.Equal(t, 800, b.W)
	assert.Equal(t, 600, b.H)
}

// DragToOrigin is a test helper moving the window to (0,0).
func (w *Window) DragToOrigin(t *testing.T) {
	t.Helper()
	b := w.Bounds()
	require.NoError(t, w.BeginDrag(b.X, b.Y))
	require.NoError(t, w.DragTo(0, 0))
	w.EndDrag()
	require.Equal(t, 0, w.Bounds().X)
	require.Equal(t, 0, w.Bounds().Y)
}

func TestDragStaysInViewport(t *testing.T) {
	w := NewWindow("peer", viewport)
	b := w.Bounds()

	require.NoError(t, w.BeginDrag(b.X+10, b.Y+10))
	require.NoError(t, w.DragTo(-5000, -5000))
	assert.Equal(t, 0, w.Bounds().X)
	assert.Equal(t, 0, w.Bounds().Y)

	require.NoError(t, w.DragTo(viewport.W+5000, viewport.H+5000))
	assert.Equal(t, viewport.W-b.W, w.Bounds().X)
	assert.Equal(t, viewport.H-b.H, w.Bounds().Y)
	w.EndDrag()
}

func TestTrackingModesAreExclusiveAndEdgeTriggered(t *testing.T) {
	w := NewWindow("peer", viewport)
	b := w.Bounds()

	// Moves without an engaged mode are rejected outright.
	assert.ErrorIs(t, w.DragTo(10, 10), ErrNotTracking)
	assert.ErrorIs(t, w.ResizeTo(10, 10), ErrNotTracking)

	require.NoError(t, w.BeginDrag(b.X, b.Y))
	assert.ErrorIs(t, w.BeginResize(b.X+b.W, b.Y+b.H), ErrBusyTracking)
	assert.ErrorIs(t, w.BeginDrag(b.X, b.Y), ErrBusyTracking)
	w.EndDrag()

	// Once the pointer is up the other mode engages cleanly.
	require.NoError(t, w.BeginResize(b.X+b.W, b.Y+b.H))
	w.EndResize()
}

func TestFullscreenSuspendsDrag(t *testing.T) {
	w := NewWindow("peer", viewport)

	w.ToggleFullscreen()
	assert.Equal(t, Fullscreen, w.Mode())
	assert.ErrorIs(t, w.BeginDrag(0, 0), ErrNotOpen)
	assert.ErrorIs(t, w.BeginResize(0, 0), ErrNotOpen)

	w.ToggleFullscreen()
	assert.Equal(t, Open, w.Mode())
	assert.NoError(t, w.BeginDrag(w.Bounds().X, w.Bounds().Y))
	w.EndDrag()
}

func TestMinimizeKeepsBoundsAndAllowsDrag(t *testing.T) {
	w := NewWindow("peer", viewport)
	before := w.Bounds()

	w.Minimize()
	assert.Equal(t, Minimized, w.Mode())
	assert.Equal(t, before, w.Bounds())

	// The header stays grabbable while minimized; resizing does not.
	assert.NoError(t, w.BeginDrag(before.X, before.Y))
	w.EndDrag()
	assert.ErrorIs(t, w.BeginResize(0, 0), ErrNotOpen)

	w.Restore()
	assert.Equal(t, Open, w.Mode())
}

func TestEngagedTrackingEndsOnModeChange(t *testing.T) {
	w := NewWindow("peer", viewport)
	b := w.Bounds()

	require.NoError(t, w.BeginDrag(b.X, b.Y))
	w.ToggleFullscreen()
	assert.ErrorIs(t, w.DragTo(10, 10), ErrNotTracking)
}

func TestManagerReusesWindowPerPeer(t *testing.T) {
	m := NewManager(viewport)

	w1 := m.Open("peer-a")
	w1.Minimize()
	w2 := m.Open("peer-a")
	assert.Same(t, w1, w2)
	assert.Equal(t, Open, w2.Mode(), "reopening restores the minimized window")

	m.Open("peer-b")
	assert.ElementsMatch(t, []string{"peer-a", "peer-b"}, m.OpenPeers())

	m.Close("peer-a")
	_, ok := m.Get("peer-a")
	assert.False(t, ok)
	assert.Equal(t, Closed, w1.Mode())
}

func TestViewportShrinkReclampsWindows(t *testing.T) {
	m := NewManager(viewport)
	w := m.Open("peer")

	m.SetViewport(Size{W: 400, H: 500})
	b := w.Bounds()
	assert.Equal(t, MinWidth, b.W)
	assert.Equal(t, MinHeight, b.H)
	assert.LessOrEqual(t, b.X+b.W, 400)
	assert.LessOrEqual(t, b.Y+b.H, 500)
}
