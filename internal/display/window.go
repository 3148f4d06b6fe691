package display

import (
	"gocv.io/x/gocv"
)

// DefaultQuitKey ends the frame loop when pressed in the window.
const DefaultQuitKey = 'q'

// NoKey is returned by PollKey when nothing was pressed.
const NoKey = -1

// Display shows frames and reports key presses.
type Display interface {
	Show(frame *gocv.Mat)
	// PollKey waits briefly for a key press and returns its code, or NoKey.
	PollKey() int
	Close() error
}

// Window is an OpenCV HighGUI window. It must be used from the goroutine
// that created it.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title sized for width x height frames.
func NewWindow(title string, width, height int) *Window {
	w := gocv.NewWindow(title)
	if width > 0 && height > 0 {
		w.ResizeWindow(width, height)
	}
	return &Window{window: w}
}

// Show draws frame in the window.
func (w *Window) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.window.IMShow(*frame)
}

// PollKey waits one millisecond for a key press.
func (w *Window) PollKey() int {
	return w.window.WaitKey(1)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

// IsQuitKey reports whether key is the quit key. Only the low byte of the
// key code is compared, as HighGUI may set modifier bits above it, so a
// non-ASCII quit key never matches.
func IsQuitKey(key int, quit rune) bool {
	if key < 0 || quit > 0x7F {
		return false
	}
	return key&0xFF == int(quit)&0xFF
}
