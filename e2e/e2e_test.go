package e2e

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/fingermouse/internal/app"
	"github.com/ayusman/fingermouse/internal/capture"
	"github.com/ayusman/fingermouse/internal/detector"
	"github.com/ayusman/fingermouse/internal/display"
	"github.com/ayusman/fingermouse/internal/gesture"
	"github.com/ayusman/fingermouse/internal/pointer"
	"github.com/ayusman/fingermouse/internal/server"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gocv.io/x/gocv"
)

// scriptedDetector returns one entry of script per call, then no hands.
type scriptedDetector struct {
	mu     sync.Mutex
	script [][]detector.HandLandmarks
}

func (d *scriptedDetector) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.script) == 0 {
		return nil, nil
	}
	hands := d.script[0]
	d.script = d.script[1:]
	return hands, nil
}

func (d *scriptedDetector) Close() error { return nil }

func one(h detector.HandLandmarks) []detector.HandLandmarks {
	return []detector.HandLandmarks{h}
}

func TestE2E_GestureSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	hub := server.NewHub(logger)
	ts := httptest.NewServer(server.New(server.Config{Hub: hub, Logger: logger}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("events subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	four := detector.FourFingersLandmarks()
	four.Points[detector.IndexTip] = detector.Point3D{X: 0.5, Y: 0.5}

	det := &scriptedDetector{script: [][]detector.HandLandmarks{
		one(four),
		one(detector.OpenPalmLandmarks()),
		one(detector.PeaceLandmarks()),
		one(detector.ThreeFingersLandmarks()),
		one(detector.FistLandmarks()),
		nil,
	}}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	camera := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	if err := camera.Open(); err != nil {
		t.Fatalf("camera.Open() error = %v", err)
	}
	defer camera.Close()

	ptr, err := pointer.NewDryRun(logger, 1920, 1080)
	if err != nil {
		t.Fatalf("NewDryRun() error = %v", err)
	}

	keys := []int{display.NoKey, display.NoKey, display.NoKey, display.NoKey, display.NoKey, 'q'}
	window := display.NewMock(keys...)

	application, err := app.New(app.Config{
		Camera:   camera,
		Detector: det,
		Pointer:  ptr,
		Display:  window,
		Preview:  hub,
		Logger:   logger,
		Mirror:   true,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	t.Run("RunUntilQuit", func(t *testing.T) {
		if err := application.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := window.Shown(); got != len(keys) {
			t.Errorf("Shown() = %d, want %d", got, len(keys))
		}
	})

	t.Run("PointerActions", func(t *testing.T) {
		moves := logs.FilterMessage("pointer move").All()
		if len(moves) != 1 {
			t.Fatalf("expected 1 move, got %d", len(moves))
		}
		fields := moves[0].ContextMap()
		if fields["x"] != int64(960) || fields["y"] != int64(540) {
			t.Errorf("move to (%v, %v), want (960, 540)", fields["x"], fields["y"])
		}

		if got := logs.FilterMessage("pointer click").Len(); got != 1 {
			t.Errorf("expected 1 click, got %d", got)
		}

		scrolls := logs.FilterMessage("pointer scroll").All()
		if len(scrolls) != 2 {
			t.Fatalf("expected 2 scrolls, got %d", len(scrolls))
		}
		if scrolls[0].ContextMap()["delta"] != int64(1) || scrolls[1].ContextMap()["delta"] != int64(-1) {
			t.Errorf("expected scroll up then down, got %v then %v",
				scrolls[0].ContextMap()["delta"], scrolls[1].ContextMap()["delta"])
		}
	})

	t.Run("PreviewEvents", func(t *testing.T) {
		want := []struct {
			hand   bool
			count  int
			action string
		}{
			{true, 4, "move"},
			{true, 5, "click"},
			{true, 2, "scroll-up"},
			{true, 3, "scroll-down"},
			{true, 0, "none"},
			{false, 0, "none"},
		}

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for i, w := range want {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("event %d: %v", i, err)
			}

			var event struct {
				Hand   bool   `json:"hand"`
				Count  int    `json:"count"`
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &event); err != nil {
				t.Fatalf("event %d: decode: %v", i, err)
			}

			if event.Hand != w.hand || event.Count != w.count || event.Action != w.action {
				t.Errorf("event %d = %s, want hand=%v count=%d action=%s", i, msg, w.hand, w.count, w.action)
			}
		}
	})

	t.Run("PreviewFrame", func(t *testing.T) {
		jpeg, seq, _ := hub.Latest()
		if seq != uint64(len(keys)) {
			t.Errorf("hub seq = %d, want %d", seq, len(keys))
		}
		if len(jpeg) == 0 {
			t.Error("expected a preview JPEG")
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats := application.Stats()
		if stats.Frames != uint64(len(keys)) {
			t.Errorf("Frames = %d, want %d", stats.Frames, len(keys))
		}
		for _, kind := range []gesture.ActionKind{gesture.ActionMove, gesture.ActionClick, gesture.ActionScrollUp, gesture.ActionScrollDown} {
			if stats.Actions[kind] != 1 {
				t.Errorf("%s count = %d, want 1", kind, stats.Actions[kind])
			}
		}
	})
}
