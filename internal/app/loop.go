package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ayusman/fingermouse/internal/capture"
	"github.com/ayusman/fingermouse/internal/detector"
	"github.com/ayusman/fingermouse/internal/display"
	"github.com/ayusman/fingermouse/internal/gesture"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Run processes frames until the quit key is pressed or ctx is done, in
// which case it returns nil. It returns an error for a closed camera, a
// detector that has given up, an incomplete hand, or a failed pointer
// action. Other detector errors only cost the frame.
//
// Each iteration:
//  1. Read a frame; a dropped frame skips straight to the key poll
//  2. Mirror the frame if configured
//  3. Detect hands, classify the first one and dispatch its action
//  4. Draw the overlay, show the frame and publish it to the preview
//  5. Poll the quit key
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("frame loop started",
		zap.Int("screen_width", a.screen.X),
		zap.Int("screen_height", a.screen.Y),
		zap.Bool("mirror", a.config.Mirror),
	)
	defer a.logSummary()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("frame loop cancelled")
			return nil
		default:
		}

		quit, err := a.step()
		if err != nil {
			return err
		}
		if quit {
			a.logger.Info("quit key pressed")
			return nil
		}
	}
}

func (a *App) step() (bool, error) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrCameraNotOpen) {
			return false, err
		}
		a.stats.Dropped++
		a.logger.Debug("frame dropped", zap.Error(err))
		return a.quitPressed(), nil
	}
	defer frame.Close()

	if a.config.Mirror {
		capture.Mirror(frame)
	}

	result, err := a.ProcessFrame(frame)
	if err != nil {
		return false, err
	}

	a.config.Display.Show(frame)
	if a.config.Preview != nil {
		a.config.Preview.Publish(frame, result)
	}

	return a.quitPressed(), nil
}

func (a *App) quitPressed() bool {
	return display.IsQuitKey(a.config.Display.PollKey(), a.config.QuitKey)
}

// ProcessFrame detects, classifies and dispatches for one frame that is
// already mirrored, and draws the overlay onto it. Frames without a hand
// produce no pointer action and no overlay.
func (a *App) ProcessFrame(frame *gocv.Mat) (FrameResult, error) {
	a.stats.Frames++
	result := FrameResult{Frame: a.stats.Frames, Timestamp: time.Now().UnixMilli()}

	hands, err := a.config.Detector.Detect(frame)
	if errors.Is(err, detector.ErrServiceFailed) {
		return result, fmt.Errorf("frame %d: %w", result.Frame, err)
	}
	if err != nil {
		a.stats.DetectErrors++
		a.logger.Warn("hand detection failed", zap.Uint64("frame", result.Frame), zap.Error(err))
		return result, nil
	}
	if len(hands) == 0 {
		return result, nil
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	hand := hands[0].ToPixels(size.X, size.Y)

	state, count, err := gesture.Classify(hand)
	if err != nil {
		return result, fmt.Errorf("frame %d: %w", result.Frame, err)
	}

	tip := hand[detector.IndexTip].Point()
	action, err := gesture.Dispatch(a.config.Pointer, count, tip, size, a.screen)
	if err != nil {
		return result, fmt.Errorf("frame %d: %w", result.Frame, err)
	}
	a.stats.Actions[action.Kind]++

	display.DrawHand(frame, hand)
	if action.Kind == gesture.ActionMove {
		display.DrawFingertip(frame, tip)
	}
	display.DrawCount(frame, count)

	result.Hand = true
	result.Fingers = state
	result.Count = count
	result.Action = action.Kind
	result.X = action.X
	result.Y = action.Y

	a.logger.Debug("frame classified",
		zap.Uint64("frame", result.Frame),
		zap.Int("count", count),
		zap.Stringer("action", action.Kind),
	)
	return result, nil
}

func (a *App) logSummary() {
	fields := []zap.Field{
		zap.Uint64("frames", a.stats.Frames),
		zap.Uint64("dropped", a.stats.Dropped),
		zap.Uint64("detect_errors", a.stats.DetectErrors),
	}
	for kind, n := range a.stats.Actions {
		if kind == gesture.ActionNone {
			continue
		}
		fields = append(fields, zap.Uint64(kind.String(), n))
	}
	a.logger.Info("frame loop stopped", fields...)
}
