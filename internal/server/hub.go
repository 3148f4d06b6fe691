package server

import (
	"encoding/json"
	"sync"

	"github.com/ayusman/fingermouse/internal/app"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// eventBuffer is how many undelivered events a subscriber may fall behind
// before new events are dropped for it.
const eventBuffer = 16

// Hub holds the latest preview frame and fans frame results out to
// subscribers. It implements app.Publisher; Publish never blocks.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
	subs    map[chan []byte]struct{}
	dropped uint64
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		updated: make(chan struct{}),
		subs:    make(map[chan []byte]struct{}),
	}
}

// Publish stores frame as the latest JPEG and broadcasts result. A nil or
// empty frame only broadcasts.
func (h *Hub) Publish(frame *gocv.Mat, result app.FrameResult) {
	var jpeg []byte
	if frame != nil && !frame.Empty() {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
		if err != nil {
			h.logger.Debug("preview encode failed", zap.Error(err))
		} else {
			jpeg = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	msg, err := json.Marshal(result)
	if err != nil {
		h.logger.Debug("preview event encode failed", zap.Error(err))
		msg = nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if jpeg != nil {
		h.jpeg = jpeg
		h.seq++
		close(h.updated)
		h.updated = make(chan struct{})
	}

	if msg == nil {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped++
		}
	}
}

// Latest returns the newest JPEG, its sequence number and a channel that
// is closed when a newer frame arrives. The JPEG is nil until the first
// frame is published.
func (h *Hub) Latest() ([]byte, uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jpeg, h.seq, h.updated
}

// Subscribe registers a new event subscriber. The returned function
// unsubscribes and closes the channel.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, eventBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of connected event subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
