package collector

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

// defaultPollInterval is how often WaitFor re-checks the journal.
const defaultPollInterval = 10 * time.Millisecond

// Journal is a thread-safe, append-only record of entries in arrival order.
//
// With a capacity of 0 it grows without bound. With a positive capacity it
// behaves like a ring buffer and keeps only the newest entries.
type Journal[T any] struct {
	entries    []T
	capacity   uint64
	writeIndex uint64
	mu         sync.RWMutex
}

// NewJournal creates a journal. A capacity of 0 means unbounded.
func NewJournal[T any](capacity uint64) *Journal[T] {
	j := &Journal[T]{capacity: capacity}
	if capacity > 0 {
		j.entries = make([]T, 0, capacity)
	}
	return j
}

// Add appends an entry. When the journal is bounded and full the oldest
// entry is overwritten.
func (j *Journal[T]) Add(entry T) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.capacity == 0 || uint64(len(j.entries)) < j.capacity {
		j.entries = append(j.entries, entry)
	} else {
		j.entries[j.writeIndex%j.capacity] = entry
	}
	j.writeIndex++
}

// Entries returns a copy of all entries, oldest first.
func (j *Journal[T]) Entries() []T {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.lastLocked(uint64(len(j.entries)))
}

// Last returns up to n of the newest entries, oldest first.
func (j *Journal[T]) Last(n uint64) []T {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.lastLocked(n)
}

func (j *Journal[T]) lastLocked(n uint64) []T {
	size := uint64(len(j.entries))
	count := min(n, size)
	result := make([]T, count)
	if count == 0 {
		return result
	}

	if j.capacity == 0 || size < j.capacity {
		copy(result, j.entries[size-count:])
		return result
	}

	// Full ring: the oldest entry sits at writeIndex.
	start := j.writeIndex - count
	for i := uint64(0); i < count; i++ {
		result[i] = j.entries[(start+i)%j.capacity]
	}
	return result
}

// Len returns the number of entries currently held.
func (j *Journal[T]) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Total returns the number of entries ever added, including overwritten ones.
func (j *Journal[T]) Total() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.writeIndex
}

// Filter returns the entries matching pred, oldest first.
func (j *Journal[T]) Filter(pred func(entry T) bool) []T {
	return lo.Filter(j.Entries(), func(entry T, _ int) bool {
		return pred(entry)
	})
}

// Reset drops all entries.
func (j *Journal[T]) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = j.entries[:0]
	j.writeIndex = 0
}

// WaitFor blocks until at least n entries match pred or ctx is done.
// It returns the matching entries seen at that point and ctx.Err() if the
// wait did not succeed.
func (j *Journal[T]) WaitFor(ctx context.Context, pred func(entry T) bool, n int) ([]T, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		matches := j.Filter(pred)
		if len(matches) >= n {
			return matches, nil
		}

		select {
		case <-ctx.Done():
			return matches, ctx.Err()
		case <-ticker.C:
		}
	}
}
