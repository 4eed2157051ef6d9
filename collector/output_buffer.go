package collector

import (
	"bytes"
	"strconv"
	"sync"
)

// OutputBuffer keeps the first limit bytes written to it and counts what
// it drops. It is used to hold the output of child processes, which can be
// arbitrarily long.
type OutputBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int
	dropped int64
}

// NewOutputBuffer creates a buffer keeping at most limit bytes.
func NewOutputBuffer(limit int) *OutputBuffer {
	return &OutputBuffer{limit: max(limit, 0)}
}

// Write never fails and always reports len(p) so writers are not
// interrupted once the limit is reached.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	remaining := b.limit - b.buf.Len()
	if remaining < n {
		b.dropped += int64(n - max(remaining, 0))
		p = p[:max(remaining, 0)]
	}
	b.buf.Write(p)
	return n, nil
}

// Len is the number of bytes kept.
func (b *OutputBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Truncated reports whether any written bytes were dropped.
func (b *OutputBuffer) Truncated() bool {
	return b.Dropped() > 0
}

// Dropped is the number of bytes written beyond the limit.
func (b *OutputBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// String returns the kept bytes followed by a marker if output was dropped.
func (b *OutputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped == 0 {
		return b.buf.String()
	}
	return b.buf.String() + "... (" + strconv.FormatInt(b.dropped, 10) + " bytes truncated)"
}

// Reset empties the buffer.
func (b *OutputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.dropped = 0
}
