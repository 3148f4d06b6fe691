package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/fingermouse/internal/app"
	"github.com/ayusman/fingermouse/internal/gesture"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{Hub: NewHub(nil)})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["subscribers"] != float64(0) {
			t.Errorf("expected 0 subscribers, got %v", response["subscribers"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/stream", "/api/events"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s without hub: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestStream_RejectsNonGet(t *testing.T) {
	s := New(Config{Hub: NewHub(nil)})

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

// plainWriter hides the recorder's Flush method.
type plainWriter struct {
	http.ResponseWriter
}

func TestStream_RequiresFlusher(t *testing.T) {
	h := NewStreamHandler(NewHub(nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(plainWriter{rec}, httptest.NewRequest(http.MethodGet, "/api/stream", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "multipart/") {
		t.Errorf("should not start a multipart stream without a flusher, got %q", ct)
	}
}

func TestStream_ServesLatestFrame(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	hub.Publish(&frame, app.FrameResult{Frame: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if strings.TrimSpace(boundary) != "--frame" {
		t.Fatalf("expected boundary line, got %q", boundary)
	}

	header, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		t.Fatalf("read part header: %v", err)
	}
	if header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("expected image/jpeg part, got %q", header.Get("Content-Type"))
	}

	n, err := strconv.Atoi(header.Get("Content-Length"))
	if err != nil || n <= 0 {
		t.Fatalf("bad Content-Length %q", header.Get("Content-Length"))
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("read part body: %v", err)
	}
	if body[0] != 0xFF || body[1] != 0xD8 {
		t.Errorf("part is not a JPEG: % x", body[:2])
	}
}

func TestEvents_BroadcastsFrameResults(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ts := httptest.NewServer(New(Config{Hub: hub, Logger: zaptest.NewLogger(t)}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.Subscribers() == 1 })

	hub.Publish(nil, app.FrameResult{
		Frame:   7,
		Hand:    true,
		Fingers: gesture.FingerState{false, true, true, true, true},
		Count:   4,
		Action:  gesture.ActionMove,
		X:       960,
		Y:       540,
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}

	var event map[string]any
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("decode event %s: %v", msg, err)
	}

	if event["frame"] != float64(7) || event["count"] != float64(4) {
		t.Errorf("unexpected event %s", msg)
	}
	if event["action"] != "move" {
		t.Errorf("expected action encoded by name, got %v", event["action"])
	}
	if event["x"] != float64(960) || event["y"] != float64(540) {
		t.Errorf("unexpected coordinates in %s", msg)
	}
	fingers, ok := event["fingers"].([]any)
	if !ok || len(fingers) != 5 || fingers[0] != false || fingers[1] != true {
		t.Errorf("unexpected fingers in %s", msg)
	}
}

func TestEvents_UnsubscribesOnClose(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitFor(t, func() bool { return hub.Subscribers() == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.Subscribers() == 0 })
}

func TestServer_ListenAndServeStopsWithContext(t *testing.T) {
	s := New(Config{Hub: NewHub(nil)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
