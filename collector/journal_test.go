package collector_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/collector"
)

func TestJournal_Unbounded(t *testing.T) {
	j := collector.NewJournal[string](0)

	assert.Equal(t, 0, j.Len())
	assert.Empty(t, j.Entries())

	for i := 1; i <= 5; i++ {
		j.Add(fmt.Sprintf("entry%d", i))
	}

	assert.Equal(t, 5, j.Len())
	assert.Equal(t, uint64(5), j.Total())
	assert.Equal(t, []string{"entry1", "entry2", "entry3", "entry4", "entry5"}, j.Entries())
	assert.Equal(t, []string{"entry4", "entry5"}, j.Last(2))
	assert.Len(t, j.Last(10), 5)
}

func TestJournal_Bounded(t *testing.T) {
	j := collector.NewJournal[string](3)

	j.Add("entry1")
	j.Add("entry2")
	assert.Equal(t, []string{"entry1", "entry2"}, j.Entries())

	j.Add("entry3")
	j.Add("entry4")
	j.Add("entry5")

	assert.Equal(t, 3, j.Len())
	assert.Equal(t, uint64(5), j.Total())
	assert.Equal(t, []string{"entry3", "entry4", "entry5"}, j.Entries())
	assert.Equal(t, []string{"entry5"}, j.Last(1))
}

func TestJournal_EntriesIsACopy(t *testing.T) {
	j := collector.NewJournal[string](0)
	j.Add("entry1")

	entries := j.Entries()
	entries[0] = "changed"

	assert.Equal(t, []string{"entry1"}, j.Entries())
}

func TestJournal_FilterAndReset(t *testing.T) {
	j := collector.NewJournal[string](0)
	j.Add("GET /api/search?q=p")
	j.Add("GET /static/app.js")
	j.Add("GET /api/search?q=play")

	matches := j.Filter(func(e string) bool { return strings.Contains(e, "/api/search") })
	assert.Equal(t, []string{"GET /api/search?q=p", "GET /api/search?q=play"}, matches)

	j.Reset()
	assert.Equal(t, 0, j.Len())
	assert.Equal(t, uint64(0), j.Total())

	j.Add("after reset")
	assert.Equal(t, []string{"after reset"}, j.Entries())
}

func TestJournal_ConcurrentAddKeepsEveryEntry(t *testing.T) {
	j := collector.NewJournal[int](0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				j.Add(w*100 + i)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 800, j.Len())

	seen := make(map[int]bool)
	for _, e := range j.Entries() {
		seen[e] = true
	}
	assert.Len(t, seen, 800)
}

func TestJournal_WaitFor(t *testing.T) {
	j := collector.NewJournal[string](0)

	go func() {
		time.Sleep(20 * time.Millisecond)
		j.Add("match")
		j.Add("other")
		j.Add("match")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	matches, err := j.WaitFor(ctx, func(e string) bool { return e == "match" }, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestJournal_WaitForTimeout(t *testing.T) {
	j := collector.NewJournal[string](0)
	j.Add("match")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	matches, err := j.WaitFor(ctx, func(e string) bool { return e == "match" }, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, matches, 1)
}
