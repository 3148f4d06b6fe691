// Package display renders the annotated camera feed and reads the quit key.
package display

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ayusman/fingermouse/internal/detector"
	"gocv.io/x/gocv"
)

// Overlay colors. gocv takes RGBA and converts to the Mat's BGR order.
var (
	ColorGreen = color.RGBA{G: 255}
	ColorRed   = color.RGBA{R: 255}
	ColorWhite = color.RGBA{R: 255, G: 255, B: 255}
)

// Overlay geometry.
const (
	landmarkRadius  = 4
	skeletonWidth   = 2
	boxThickness    = 2
	fingertipRadius = 15
	countScale      = 1.0
	countThickness  = 3
)

// CountOrigin is where the finger count is printed.
var CountOrigin = image.Pt(10, 70)

// DrawHand draws the skeleton and a bounding box around a pixel hand.
// Connections that reference missing landmarks are skipped.
func DrawHand(img *gocv.Mat, hand []detector.Landmark) {
	if img == nil || len(hand) == 0 {
		return
	}

	for _, c := range detector.Connections {
		if c[0] >= len(hand) || c[1] >= len(hand) {
			continue
		}
		gocv.Line(img, hand[c[0]].Point(), hand[c[1]].Point(), ColorWhite, skeletonWidth)
	}

	for _, l := range hand {
		gocv.Circle(img, l.Point(), landmarkRadius, ColorRed, -1)
	}

	gocv.Rectangle(img, detector.Bounds(hand), ColorGreen, boxThickness)
}

// DrawCount prints the finger count in the top left corner.
func DrawCount(img *gocv.Mat, count int) {
	if img == nil {
		return
	}
	gocv.PutText(img, strconv.Itoa(count), CountOrigin, gocv.FontHersheySimplex, countScale, ColorGreen, countThickness)
}

// DrawFingertip marks the fingertip that drives the cursor.
func DrawFingertip(img *gocv.Mat, tip image.Point) {
	if img == nil {
		return
	}
	gocv.Circle(img, tip, fingertipRadius, ColorRed, -1)
}
