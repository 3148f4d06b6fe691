// Package gesture turns hand landmarks into finger counts and finger counts
// into pointer actions.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/fingermouse/internal/detector"
)

// ErrIncompleteHand is returned when a hand has fewer than
// detector.NumLandmarks landmarks.
var ErrIncompleteHand = errors.New("incomplete hand landmark set")

// Finger identifies one finger in a FingerState.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// FingerState holds the up/down state of each finger, ordered thumb, index,
// middle, ring, pinky.
type FingerState [NumFingers]bool

// Count returns the number of fingers that are up.
func (s FingerState) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// fingerTips pairs each non-thumb fingertip with the joint it is compared against.
var fingerTips = [...]struct {
	finger Finger
	tip    int
	joint  int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// Classify computes which fingers are up for one hand given in pixel
// coordinates, and how many.
//
// The thumb is up when its tip lies left of the IP joint. This only holds
// for a right hand in a mirrored frame and is not rotation invariant.
// The other fingers are up when the tip is higher on screen (smaller Y) than
// the PIP joint.
func Classify(hand []detector.Landmark) (FingerState, int, error) {
	var state FingerState

	if len(hand) < detector.NumLandmarks {
		return state, 0, fmt.Errorf("%w: got %d landmarks, want %d", ErrIncompleteHand, len(hand), detector.NumLandmarks)
	}

	state[Thumb] = hand[detector.ThumbTip].X < hand[detector.ThumbIP].X

	for _, f := range fingerTips {
		state[f.finger] = hand[f.tip].Y < hand[f.joint].Y
	}

	return state, state.Count(), nil
}
