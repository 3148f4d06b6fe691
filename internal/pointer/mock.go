package pointer

import "sync"

// Call records one pointer operation made against a Mock.
type Call struct {
	Op    string // "move", "click" or "scroll"
	X, Y  int
	Delta int
}

// Mock is a test implementation of Pointer that records every call.
type Mock struct {
	mu     sync.Mutex
	calls  []Call
	width  int
	height int
	err    error
}

// NewMock creates a Mock reporting the given screen size.
func NewMock(width, height int) *Mock {
	return &Mock{width: width, height: height}
}

// SetError makes every subsequent action fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset forgets recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, c)
	return nil
}

func (m *Mock) MoveTo(x, y int) error {
	return m.record(Call{Op: "move", X: x, Y: y})
}

func (m *Mock) Click() error {
	return m.record(Call{Op: "click"})
}

func (m *Mock) Scroll(delta int) error {
	return m.record(Call{Op: "scroll", Delta: delta})
}

func (m *Mock) ScreenSize() (int, int, error) {
	return m.width, m.height, nil
}
