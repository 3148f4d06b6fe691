package gesture

import (
	"fmt"
	"image"

	"github.com/ayusman/fingermouse/internal/pointer"
)

// ActionKind is the pointer action selected for a frame.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionClick
	ActionScrollUp
	ActionScrollDown
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionMove:
		return "move"
	case ActionClick:
		return "click"
	case ActionScrollUp:
		return "scroll-up"
	case ActionScrollDown:
		return "scroll-down"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is one pointer action. X and Y are screen coordinates and only
// meaningful for ActionMove.
type Action struct {
	Kind ActionKind
	X    float64
	Y    float64
}

// Select maps a finger count to an action.
//
//	4     move to the fingertip, rescaled from frame to screen
//	5     click
//	2     scroll up one unit
//	3     scroll down one unit
//	other nothing
//
// frame and screen hold width and height. A frame with a zero dimension
// yields no action.
func Select(count int, tip, frame, screen image.Point) Action {
	switch count {
	case 4:
		if frame.X == 0 || frame.Y == 0 {
			return Action{Kind: ActionNone}
		}
		return Action{
			Kind: ActionMove,
			X:    float64(screen.X) * (float64(tip.X) / float64(frame.X)),
			Y:    float64(screen.Y) * (float64(tip.Y) / float64(frame.Y)),
		}
	case 5:
		return Action{Kind: ActionClick}
	case 2:
		return Action{Kind: ActionScrollUp}
	case 3:
		return Action{Kind: ActionScrollDown}
	default:
		return Action{Kind: ActionNone}
	}
}

// Perform applies a to the pointer with exactly one call, or none for
// ActionNone.
func Perform(p pointer.Pointer, a Action) error {
	var err error
	switch a.Kind {
	case ActionMove:
		err = p.MoveTo(int(a.X), int(a.Y))
	case ActionClick:
		err = p.Click()
	case ActionScrollUp:
		err = p.Scroll(1)
	case ActionScrollDown:
		err = p.Scroll(-1)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("perform %s: %w", a.Kind, err)
	}
	return nil
}

// Dispatch selects the action for count and performs it.
func Dispatch(p pointer.Pointer, count int, tip, frame, screen image.Point) (Action, error) {
	a := Select(count, tip, frame, screen)
	return a, Perform(p, a)
}
