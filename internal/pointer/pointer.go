// Package pointer drives the operating system's mouse cursor.
package pointer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"
)

// ErrPointerUnavailable is returned when the OS pointer cannot be controlled,
// for example when there is no display or accessibility permission is missing.
var ErrPointerUnavailable = errors.New("pointer control unavailable")

// Pointer is the OS-level pointer the gesture dispatcher acts on.
type Pointer interface {
	// MoveTo moves the cursor to absolute screen coordinates.
	MoveTo(x, y int) error
	// Click performs a single left click at the current cursor position.
	Click() error
	// Scroll scrolls the wheel by delta units. Positive scrolls up,
	// negative scrolls down, zero does nothing.
	Scroll(delta int) error
	// ScreenSize returns the main screen resolution.
	ScreenSize() (width, height int, err error)
}

// Robot controls the real cursor through robotgo.
type Robot struct {
	mu     sync.Mutex
	width  int
	height int
}

// NewRobot probes the screen and returns a Robot.
// It fails with ErrPointerUnavailable when no usable screen is reported.
func NewRobot() (*Robot, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: screen size %dx%d", ErrPointerUnavailable, w, h)
	}
	return &Robot{width: w, height: h}, nil
}

// MoveTo moves the cursor.
func (r *Robot) MoveTo(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	robotgo.Move(x, y)
	return nil
}

// Click clicks the left button.
func (r *Robot) Click() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	robotgo.Click("left")
	return nil
}

// Scroll scrolls |delta| units up or down.
func (r *Robot) Scroll(delta int) error {
	if delta == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if delta > 0 {
		robotgo.ScrollDir(delta, "up")
	} else {
		robotgo.ScrollDir(-delta, "down")
	}
	return nil
}

// ScreenSize returns the size probed by NewRobot.
func (r *Robot) ScreenSize() (int, int, error) {
	return r.width, r.height, nil
}

// DryRun logs pointer actions instead of performing them.
type DryRun struct {
	logger *zap.Logger
	width  int
	height int
}

// NewDryRun creates a DryRun pointer reporting the given screen size.
func NewDryRun(logger *zap.Logger, width, height int) (*DryRun, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: screen size %dx%d", ErrPointerUnavailable, width, height)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{logger: logger, width: width, height: height}, nil
}

func (d *DryRun) MoveTo(x, y int) error {
	d.logger.Info("pointer move", zap.Int("x", x), zap.Int("y", y))
	return nil
}

func (d *DryRun) Click() error {
	d.logger.Info("pointer click")
	return nil
}

func (d *DryRun) Scroll(delta int) error {
	if delta == 0 {
		return nil
	}
	d.logger.Info("pointer scroll", zap.Int("delta", delta))
	return nil
}

func (d *DryRun) ScreenSize() (int, int, error) {
	return d.width, d.height, nil
}
