package host

import (
	"strings"
	"sync"
)

// IOBuf is the bounded log buffer of a core. When the buffer is full, the
// oldest text is dropped. The host reads the buffer after or during a run.
type IOBuf struct {
	lock     sync.Mutex
	buf      []byte
	capacity int
	dropped  int
}

// NewIOBuf creates a buffer that keeps at most capacity bytes.
func NewIOBuf(capacity int) *IOBuf {
	return &IOBuf{
		buf:      make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p to the buffer. It never fails.
func (b *IOBuf) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(p) >= b.capacity {
		b.dropped += len(b.buf) + len(p) - b.capacity
		b.buf = append(b.buf[:0], p[len(p)-b.capacity:]...)
		return len(p), nil
	}

	overflow := len(b.buf) + len(p) - b.capacity
	if overflow > 0 {
		b.dropped += overflow
		b.buf = append(b.buf[:0], b.buf[overflow:]...)
	}

	b.buf = append(b.buf, p...)

	return len(p), nil
}

// String returns the content of the buffer.
func (b *IOBuf) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()

	return string(b.buf)
}

// Lines returns the complete lines in the buffer.
func (b *IOBuf) Lines() []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

// Dropped returns the number of bytes lost to overflow.
func (b *IOBuf) Dropped() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.dropped
}

// Clear empties the buffer.
func (b *IOBuf) Clear() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.buf = b.buf[:0]
	b.dropped = 0
}
