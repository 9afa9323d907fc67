// Package window models the floating private-chat pop-outs: open state,
// dragging and resizing as explicit state machines. Pointer tracking is
// only legal between an explicit Begin and End, which is the transition-edge
// equivalent of attaching and removing document listeners.
package window

import "errors"

type Mode int

const (
	Closed Mode = iota
	Open
	Minimized
	Fullscreen
)

func (m Mode) String() string {
	switch m {
	case Open:
		return "open"
	case Minimized:
		return "minimized"
	case Fullscreen:
		return "fullscreen"
	}
	return "closed"
}

// Minimum window size; resize clamps here, never below.
const (
	MinWidth  = 350
	MinHeight = 400
)

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type tracking int

const (
	idle tracking = iota
	dragging
	resizing
)

var (
	ErrNotOpen      = errors.New("window is not open")
	ErrNotTracking  = errors.New("no drag or resize in progress")
	ErrBusyTracking = errors.New("another tracking mode is engaged")
)

// Window is one pop-out surface showing the 1:1 thread with PeerID.
type Window struct {
	PeerID string

	mode     Mode
	bounds   Rect
	viewport Size
	track    tracking

	// Pointer offset from the window origin at drag start, and the anchor
	// bounds at resize start.
	grabDX, grabDY int
	anchor         Rect
}

// NewWindow opens a pop-out at a default position inside the viewport.
func NewWindow(peerID string, viewport Size) *Window {
	w := &Window{
		PeerID:   peerID,
		mode:     Open,
		viewport: viewport,
		bounds:   Rect{W: MinWidth, H: MinHeight},
	}
	// Bottom-right corner with a small margin, like the source surfaces.
	w.bounds.X = clamp(viewport.W-MinWidth-24, 0, maxInt(viewport.W-MinWidth, 0))
	w.bounds.Y = clamp(viewport.H-MinHeight-24, 0, maxInt(viewport.H-MinHeight, 0))
	return w
}

func (w *Window) Mode() Mode   { return w.mode }
func (w *Window) Bounds() Rect { return w.bounds }

// SetViewport records a viewport change and re-clamps the window into it.
func (w *Window) SetViewport(viewport Size) {
	w.viewport = viewport
	w.bounds = w.clampBounds(w.bounds)
}

// Minimize keeps the header, hides the body. Any in-flight tracking ends.
func (w *Window) Minimize() {
	if w.mode == Open || w.mode == Fullscreen {
		w.mode = Minimized
		w.track = idle
	}
}

// Restore returns a minimized or fullscreen window to its floating bounds.
func (w *Window) Restore() {
	if w.mode == Minimized || w.mode == Fullscreen {
		w.mode = Open
	}
}

// ToggleFullscreen expands to the viewport and suspends drag/resize.
func (w *Window) ToggleFullscreen() {
	switch w.mode {
	case Fullscreen:
		w.mode = Open
	case Open, Minimized:
		w.mode = Fullscreen
		w.track = idle
	}
}

// Close is legal from any state.
func (w *Window) Close() {
	w.mode = Closed
	w.track = idle
}

// BeginDrag engages drag tracking from a pointer-down on the header.
// Fullscreen suspends dragging entirely.
func (w *Window) BeginDrag(px, py int) error {
	if w.mode != Open && w.mode != Minimized {
		return ErrNotOpen
	}
	if w.track != idle {
		return ErrBusyTracking
	}
	w.track = dragging
	w.grabDX = px - w.bounds.X
	w.grabDY = py - w.bounds.Y
	return nil
}

// DragTo moves the window with the pointer, clamped into the viewport.
func (w *Window) DragTo(px, py int) error {
	if w.track != dragging {
		return ErrNotTracking
	}
	w.bounds.X = px - w.grabDX
	w.bounds.Y = py - w.grabDY
	w.bounds = w.clampBounds(w.bounds)
	return nil
}

func (w *Window) EndDrag() {
	if w.track == dragging {
		w.track = idle
	}
}

// BeginResize engages resize tracking from a pointer-down on the handle.
func (w *Window) BeginResize(px, py int) error {
	if w.mode != Open {
		return ErrNotOpen
	}
	if w.track != idle {
		return ErrBusyTracking
	}
	w.track = resizing
	w.grabDX = px
	w.grabDY = py
	w.anchor = w.bounds
	return nil
}

// ResizeTo grows or shrinks from the anchor by the pointer delta. The floor
// is exactly MinWidth x MinHeight; the ceiling is whatever still fits the
// viewport from the window's origin.
func (w *Window) ResizeTo(px, py int) error {
	if w.track != resizing {
		return ErrNotTracking
	}
	width := w.anchor.W + (px - w.grabDX)
	height := w.anchor.H + (py - w.grabDY)

	maxW := w.viewport.W - w.anchor.X
	maxH := w.viewport.H - w.anchor.Y

	w.bounds.W = clamp(width, MinWidth, maxInt(maxW, MinWidth))
	w.bounds.H = clamp(height, MinHeight, maxInt(maxH, MinHeight))
	return nil
}

func (w *Window) EndResize() {
	if w.track == resizing {
		w.track = idle
	}
}

func (w *Window) clampBounds(b Rect) Rect {
	b.W = clamp(b.W, MinWidth, maxInt(w.viewport.W, MinWidth))
	b.H = clamp(b.H, MinHeight, maxInt(w.viewport.H, MinHeight))
	b.X = clamp(b.X, 0, maxInt(w.viewport.W-b.W, 0))
	b.Y = clamp(b.Y, 0, maxInt(w.viewport.H-b.H, 0))
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
