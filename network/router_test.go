package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	playwright.Request
	url string
}

func (r fakeRequest) URL() string {
	return r.url
}

type fakeRoute struct {
	playwright.Route
	req       fakeRequest
	fulfilled *playwright.RouteFulfillOptions
	aborted   bool
	fellBack  bool
}

func newFakeRoute(url string) *fakeRoute {
	return &fakeRoute{req: fakeRequest{url: url}}
}

func (r *fakeRoute) Request() playwright.Request {
	return r.req
}

func (r *fakeRoute) Fulfill(options ...playwright.RouteFulfillOptions) error {
	r.fulfilled = &options[0]
	return nil
}

func (r *fakeRoute) Abort(errorCode ...string) error {
	r.aborted = true
	return nil
}

func (r *fakeRoute) Fallback(options ...playwright.RouteFallbackOptions) error {
	r.fellBack = true
	return nil
}

func TestRouter_FirstRegisteredWins(t *testing.T) {
	r := NewRouter(nil, "http://localhost:3000", nil)

	require.NoError(t, r.Fulfill("/api/**", 500, map[string]string{"error": "broad"}))
	require.NoError(t, r.Fulfill("/api/products", 200, map[string]any{"items": []string{}, "total": 0}))

	idx, ok := r.Match("http://localhost:3000/api/products")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	route := newFakeRoute("http://localhost:3000/api/products")
	r.dispatch(route)

	require.NotNil(t, route.fulfilled)
	assert.Equal(t, 500, *route.fulfilled.Status)
	assert.Equal(t, "application/json", *route.fulfilled.ContentType)
	assert.JSONEq(t, `{"error":"broad"}`, string(route.fulfilled.Body.([]byte)))
}

func TestRouter_UnmatchedFallsBack(t *testing.T) {
	r := NewRouter(nil, "http://localhost:3000", nil)
	require.NoError(t, r.Fulfill("/api/products", 200, nil))

	route := newFakeRoute("http://localhost:3000/api/users")
	r.dispatch(route)

	assert.True(t, route.fellBack)
	assert.Nil(t, route.fulfilled)
	assert.False(t, route.aborted)
}

func TestRouter_Abort(t *testing.T) {
	rs := NewRouters("http://localhost:3000", nil)
	r := rs.For(nil)
	for _, domain := range AnalyticsDomains {
		require.NoError(t, r.Abort(domain))
	}
	assert.Same(t, r, rs.For(nil))
	assert.Equal(t, len(AnalyticsDomains), r.Len())

	tracked := newFakeRoute("https://hotjar.com/c/hotjar-123.js")
	r.dispatch(tracked)
	assert.True(t, tracked.aborted)

	own := newFakeRoute("http://localhost:3000/app.js")
	r.dispatch(own)
	assert.True(t, own.fellBack)
}

func TestRouter_Delay(t *testing.T) {
	r := NewRouter(nil, "http://localhost:3000", nil)
	require.NoError(t, r.Fulfill("/api/reports", 200, []byte(`{"data":[]}`), WithDelay(50*time.Millisecond), WithHeader("X-Stub", "1")))

	route := newFakeRoute("http://localhost:3000/api/reports")
	start := time.Now()
	r.dispatch(route)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.NotNil(t, route.fulfilled)
	assert.Equal(t, "1", route.fulfilled.Headers["X-Stub"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(route.fulfilled.Body.([]byte), &body))
	assert.Contains(t, body, "data")
}

func TestRouter_StringBodyIsEncoded(t *testing.T) {
	r := NewRouter(nil, "http://localhost:3000", nil)
	require.NoError(t, r.Fulfill("/api/message", 200, "maintenance window"))

	route := newFakeRoute("http://localhost:3000/api/message")
	r.dispatch(route)

	require.NotNil(t, route.fulfilled)
	assert.Equal(t, `"maintenance window"`, string(route.fulfilled.Body.([]byte)))
}

type fakePage struct {
	routes atomic.Int32
	fail   atomic.Bool
}

func (p *fakePage) route(handler func(playwright.Route)) error {
	time.Sleep(20 * time.Millisecond)
	if p.fail.Load() {
		return errors.New("page closed")
	}
	p.routes.Add(1)
	return nil
}

func TestRouter_InstallsCatchAllRouteOnce(t *testing.T) {
	page := &fakePage{}
	r := NewRouter(nil, "http://localhost:3000", nil)
	r.route = page.route

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		errs    = make(chan error, 10)
		counted = make(chan int32, 10)
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- r.Fulfill(fmt.Sprintf("/api/items/%d", i), 200, nil)
			// The route is active once Handle returned.
			counted <- page.routes.Load()
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	close(counted)

	for err := range errs {
		assert.NoError(t, err)
	}
	for n := range counted {
		assert.Equal(t, int32(1), n)
	}
	assert.Equal(t, int32(1), page.routes.Load())
	assert.Equal(t, 10, r.Len())
}

func TestRouter_RetriesInstallAfterFailure(t *testing.T) {
	page := &fakePage{}
	page.fail.Store(true)
	r := NewRouter(nil, "http://localhost:3000", nil)
	r.route = page.route

	require.ErrorContains(t, r.Abort("/ads/**"), "installing route")
	assert.Equal(t, int32(0), page.routes.Load())

	page.fail.Store(false)
	require.NoError(t, r.Abort("/tracking/**"))
	require.NoError(t, r.Abort("/beacon/**"))
	assert.Equal(t, int32(1), page.routes.Load())
}

func TestRequestLog_OrderFilterAndWait(t *testing.T) {
	log := NewRequestLog()
	log.Add(Entry{URL: "http://localhost:3000/search", Method: "GET"})
	log.Add(Entry{URL: "http://localhost:3000/api/search?q=playwright", Method: "GET"})
	log.Add(Entry{URL: "http://localhost:3000/api/payment", Method: "POST"})

	entries := log.Entries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Seq)
	}

	assert.Equal(t, 1, log.Count("/api/search"))
	payment, ok := log.Find("/api/payment", "post")
	require.True(t, ok)
	assert.Equal(t, "POST", payment.Method)
	_, ok = log.Find("/api/payment", "GET")
	assert.False(t, ok)

	go func() {
		time.Sleep(20 * time.Millisecond)
		log.Add(Entry{URL: "http://localhost:3000/api/search?q=go", Method: "GET"})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	matches, err := log.WaitFor(ctx, "/api/search", "", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
