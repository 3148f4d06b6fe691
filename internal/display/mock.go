package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock is a Display for tests. It counts shown frames and returns scripted
// key presses, then NoKey once the script is exhausted.
type Mock struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	sizes  [][2]int
	closed bool
}

// NewMock creates a Mock that will return keys from successive PollKey calls.
func NewMock(keys ...int) *Mock {
	return &Mock{keys: keys}
}

func (m *Mock) Show(frame *gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown++
	if frame != nil {
		m.sizes = append(m.sizes, [2]int{frame.Cols(), frame.Rows()})
	}
}

func (m *Mock) PollKey() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return NoKey
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Shown returns how many frames were shown.
func (m *Mock) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
