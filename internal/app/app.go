// Package app runs the frame loop that turns hand gestures into pointer actions.
package app

import (
	"errors"
	"fmt"
	"image"

	"github.com/ayusman/fingermouse/internal/capture"
	"github.com/ayusman/fingermouse/internal/detector"
	"github.com/ayusman/fingermouse/internal/display"
	"github.com/ayusman/fingermouse/internal/gesture"
	"github.com/ayusman/fingermouse/internal/pointer"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Publisher receives every processed frame. It must not block.
type Publisher interface {
	Publish(frame *gocv.Mat, result FrameResult)
}

// Config holds the collaborators and options of the frame loop.
// Camera, Detector, Pointer and Display are required.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Pointer  pointer.Pointer
	Display  display.Display
	Preview  Publisher
	Logger   *zap.Logger

	// Mirror flips each frame horizontally before detection.
	Mirror bool
	// QuitKey ends the loop when pressed in the display. Defaults to 'q'.
	QuitKey rune
}

// FrameResult summarizes one processed frame.
type FrameResult struct {
	Frame     uint64              `json:"frame"`
	Hand      bool                `json:"hand"`
	Fingers   gesture.FingerState `json:"fingers"`
	Count     int                 `json:"count"`
	Action    gesture.ActionKind  `json:"action"`
	X         float64             `json:"x"`
	Y         float64             `json:"y"`
	Timestamp int64               `json:"timestamp"`
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames       uint64
	Dropped      uint64
	DetectErrors uint64
	Actions      map[gesture.ActionKind]uint64
}

// App is the gesture-to-pointer frame loop. It is not safe for concurrent
// use; Run and ProcessFrame belong to one goroutine.
type App struct {
	config Config
	logger *zap.Logger
	screen image.Point
	stats  Stats
}

// New validates the configuration and reads the screen size once.
func New(config Config) (*App, error) {
	switch {
	case config.Camera == nil:
		return nil, errors.New("app: camera is required")
	case config.Detector == nil:
		return nil, errors.New("app: detector is required")
	case config.Pointer == nil:
		return nil, errors.New("app: pointer is required")
	case config.Display == nil:
		return nil, errors.New("app: display is required")
	}

	if config.QuitKey == 0 {
		config.QuitKey = display.DefaultQuitKey
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w, h, err := config.Pointer.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("screen size: %w", err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("screen size %dx%d: %w", w, h, pointer.ErrPointerUnavailable)
	}

	return &App{
		config: config,
		logger: logger,
		screen: image.Pt(w, h),
		stats:  Stats{Actions: make(map[gesture.ActionKind]uint64)},
	}, nil
}

// Screen returns the screen size captured at startup.
func (a *App) Screen() image.Point {
	return a.screen
}

// Stats returns a snapshot of the loop counters.
func (a *App) Stats() Stats {
	s := a.stats
	s.Actions = make(map[gesture.ActionKind]uint64, len(a.stats.Actions))
	for k, v := range a.stats.Actions {
		s.Actions[k] = v
	}
	return s
}
