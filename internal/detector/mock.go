package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger columns of the preset hands, in normalized frame coordinates.
// The presets describe a right hand in a mirrored frame: the thumb sits on
// the left and points further left when extended.
var presetColumns = [4]float64{0.50, 0.56, 0.62, 0.68}

// PresetHand builds a complete hand whose thumb and fingers are extended
// according to the flags. fingers is ordered index, middle, ring, pinky.
func PresetHand(thumbUp bool, fingers [4]bool) HandLandmarks {
	lm := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.58, Y: 0.85}

	lm.Points[ThumbCMC] = Point3D{X: 0.52, Y: 0.80, Z: -0.01}
	lm.Points[ThumbMCP] = Point3D{X: 0.47, Y: 0.74, Z: -0.02}
	if thumbUp {
		lm.Points[ThumbIP] = Point3D{X: 0.40, Y: 0.68, Z: -0.03}
		lm.Points[ThumbTip] = Point3D{X: 0.34, Y: 0.64, Z: -0.03}
	} else {
		// Folded across the palm
		lm.Points[ThumbIP] = Point3D{X: 0.46, Y: 0.66, Z: -0.04}
		lm.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.64, Z: -0.05}
	}

	for f, up := range fingers {
		base := IndexMCP + f*4
		x := presetColumns[f]
		lm.Points[base] = Point3D{X: x, Y: 0.65}
		lm.Points[base+1] = Point3D{X: x, Y: 0.55, Z: -0.01}
		if up {
			lm.Points[base+2] = Point3D{X: x, Y: 0.45, Z: -0.02}
			lm.Points[base+3] = Point3D{X: x, Y: 0.35, Z: -0.02}
		} else {
			// Curled back toward the palm, tip below the PIP joint
			lm.Points[base+2] = Point3D{X: x, Y: 0.60, Z: -0.05}
			lm.Points[base+3] = Point3D{X: x, Y: 0.63, Z: -0.03}
		}
	}

	return lm
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return PresetHand(true, [4]bool{true, true, true, true})
}

// FourFingersLandmarks returns a hand with the thumb folded and the other
// four fingers extended.
func FourFingersLandmarks() HandLandmarks {
	return PresetHand(false, [4]bool{true, true, true, true})
}

// ThreeFingersLandmarks returns a hand with index, middle and ring extended.
func ThreeFingersLandmarks() HandLandmarks {
	return PresetHand(false, [4]bool{true, true, true, false})
}

// PeaceLandmarks returns a hand with index and middle extended.
func PeaceLandmarks() HandLandmarks {
	return PresetHand(false, [4]bool{true, true, false, false})
}

// PointingLandmarks returns a hand with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return PresetHand(false, [4]bool{true, false, false, false})
}

// FistLandmarks returns a closed hand.
func FistLandmarks() HandLandmarks {
	return PresetHand(false, [4]bool{})
}
