// Package detector provides hand landmark detection interfaces and types.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connections lists the landmark pairs joined by the hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D is a landmark position normalized to the frame: X and Y in [0,1],
// Z relative depth with the wrist as origin.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand as reported by the landmark model.
// Points normally holds NumLandmarks entries; it is left at whatever length
// the model produced so callers can reject incomplete hands.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Landmark is a single hand landmark in pixel coordinates of the current frame.
type Landmark struct {
	ID int
	X  int
	Y  int
}

// Point returns the landmark position as an image.Point.
func (l Landmark) Point() image.Point {
	return image.Pt(l.X, l.Y)
}

// ToPixels converts the normalized points to pixel landmarks for a frame of
// the given size. Coordinates are truncated toward zero.
func (h *HandLandmarks) ToPixels(width, height int) []Landmark {
	if h == nil {
		return nil
	}

	landmarks := make([]Landmark, len(h.Points))
	for i, p := range h.Points {
		landmarks[i] = Landmark{
			ID: i,
			X:  int(p.X * float64(width)),
			Y:  int(p.Y * float64(height)),
		}
	}
	return landmarks
}

// Complete reports whether all NumLandmarks points are present.
func (h *HandLandmarks) Complete() bool {
	return h != nil && len(h.Points) >= NumLandmarks
}

// Bounds returns the smallest rectangle containing all landmarks.
// It returns the zero rectangle for an empty slice.
func Bounds(landmarks []Landmark) image.Rectangle {
	if len(landmarks) == 0 {
		return image.Rectangle{}
	}

	r := image.Rectangle{Min: landmarks[0].Point(), Max: landmarks[0].Point()}
	for _, l := range landmarks[1:] {
		if l.X < r.Min.X {
			r.Min.X = l.X
		}
		if l.Y < r.Min.Y {
			r.Min.Y = l.Y
		}
		if l.X > r.Max.X {
			r.Max.X = l.X
		}
		if l.Y > r.Max.Y {
			r.Max.Y = l.Y
		}
	}
	return r
}
