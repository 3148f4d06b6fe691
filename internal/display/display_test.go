package display

import (
	"image"
	"testing"

	"github.com/ayusman/fingermouse/internal/detector"
	"gocv.io/x/gocv"
)

func TestIsQuitKey(t *testing.T) {
	tests := []struct {
		name string
		key  int
		want bool
	}{
		{name: "q", key: 'q', want: true},
		{name: "q with modifier bits", key: 0x100000 | 'q', want: true},
		{name: "other key", key: 'x', want: false},
		{name: "upper case", key: 'Q', want: false},
		{name: "no key", key: NoKey, want: false},
	}

	t.Run("non-ASCII quit key never matches its low byte", func(t *testing.T) {
		if IsQuitKey(5, 'ą') {
			t.Error("U+0105 should not match key code 5")
		}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuitKey(tt.key, DefaultQuitKey); got != tt.want {
				t.Errorf("IsQuitKey(%d) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestMock(t *testing.T) {
	m := NewMock('a', 'q')

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	m.Show(&frame)
	m.Show(&frame)

	if got := m.Shown(); got != 2 {
		t.Errorf("Shown() = %d, want 2", got)
	}

	for _, want := range []int{'a', 'q', NoKey, NoKey} {
		if got := m.PollKey(); got != want {
			t.Errorf("PollKey() = %d, want %d", got, want)
		}
	}

	m.Close()
	if !m.Closed() {
		t.Error("expected Closed() after Close")
	}

	var _ Display = m
	var _ Display = (*Window)(nil)
}

func TestDrawHand(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	hand := detector.OpenPalmLandmarks()
	pixels := hand.ToPixels(640, 480)

	DrawHand(&frame, pixels)

	box := detector.Bounds(pixels)
	// The box outline is green (BGR 0,255,0).
	px := frame.GetVecbAt(box.Min.Y, box.Min.X)
	if px[0] != 0 || px[1] != 255 || px[2] != 0 {
		t.Errorf("expected green box corner, got %v", px)
	}

	// Far from the hand nothing is drawn.
	if px := frame.GetVecbAt(5, 630); px[0] != 0 || px[1] != 0 || px[2] != 0 {
		t.Errorf("expected untouched pixel, got %v", px)
	}
}

func TestDrawHand_ToleratesPartialHands(t *testing.T) {
	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawHand(&frame, []detector.Landmark{{ID: 0, X: 10, Y: 10}, {ID: 1, X: 20, Y: 20}})
	DrawHand(&frame, nil)
	DrawHand(nil, []detector.Landmark{{ID: 0, X: 10, Y: 10}})
}

func TestDrawFingertip(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawFingertip(&frame, image.Pt(320, 240))

	// Filled red circle (BGR 0,0,255) at the center.
	px := frame.GetVecbAt(240, 320)
	if px[0] != 0 || px[1] != 0 || px[2] != 255 {
		t.Errorf("expected red fingertip, got %v", px)
	}
}

func TestDrawCount(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawCount(&frame, 4)

	region := frame.Region(image.Rect(0, 30, 60, 80))
	defer region.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

	if gocv.CountNonZero(gray) == 0 {
		t.Error("expected count text to be drawn near the origin")
	}
}
