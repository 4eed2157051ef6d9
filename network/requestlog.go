package network

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/collector"
)

// Entry is one request observed by a RequestLog.
type Entry struct {
	// Seq is the position in arrival order, starting at 1.
	Seq          uint64
	URL          string
	Method       string
	ResourceType string
	At           time.Time
}

// RequestLog records every request issued by the pages it is attached to,
// in the order the browser reports them.
type RequestLog struct {
	journal *collector.Journal[Entry]
	seq     atomic.Uint64
	stopped atomic.Bool
}

// NewRequestLog creates an empty log.
func NewRequestLog() *RequestLog {
	return &RequestLog{journal: collector.NewJournal[Entry](0)}
}

// Attach starts recording the requests of page.
func (l *RequestLog) Attach(page playwright.Page) {
	page.OnRequest(l.record)
}

// AttachContext records the requests of every page of ctx, including pages
// opened later.
func (l *RequestLog) AttachContext(ctx playwright.BrowserContext) {
	ctx.OnRequest(l.record)
}

// Stop ends recording. Requests reported afterwards are ignored.
func (l *RequestLog) Stop() {
	l.stopped.Store(true)
}

func (l *RequestLog) record(req playwright.Request) {
	if l.stopped.Load() {
		return
	}
	l.Add(Entry{
		URL:          req.URL(),
		Method:       req.Method(),
		ResourceType: req.ResourceType(),
		At:           time.Now(),
	})
}

// Add appends an entry and assigns its sequence number.
func (l *RequestLog) Add(e Entry) {
	e.Seq = l.seq.Add(1)
	l.journal.Add(e)
}

// Entries returns all recorded requests in arrival order.
func (l *RequestLog) Entries() []Entry {
	return l.journal.Entries()
}

// Len returns the number of recorded requests.
func (l *RequestLog) Len() int {
	return l.journal.Len()
}

// Filter returns the requests whose URL contains substr and, if method is
// not empty, that use method.
func (l *RequestLog) Filter(substr, method string) []Entry {
	return l.journal.Filter(matcher(substr, method))
}

// Find returns the first request matching substr and method.
func (l *RequestLog) Find(substr, method string) (Entry, bool) {
	matches := l.Filter(substr, method)
	if len(matches) == 0 {
		return Entry{}, false
	}
	return matches[0], true
}

// Count returns the number of requests whose URL contains substr.
func (l *RequestLog) Count(substr string) int {
	return len(l.Filter(substr, ""))
}

// WaitFor blocks until n requests match substr and method or ctx is done.
func (l *RequestLog) WaitFor(ctx context.Context, substr, method string, n int) ([]Entry, error) {
	return l.journal.WaitFor(ctx, matcher(substr, method), n)
}

func matcher(substr, method string) func(Entry) bool {
	return func(e Entry) bool {
		if method != "" && !strings.EqualFold(e.Method, method) {
			return false
		}
		return strings.Contains(e.URL, substr)
	}
}
