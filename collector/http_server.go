package collector

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// ServerRequest is one request handled by a server wrapped with
// ServerRequests.Middleware.
type ServerRequest struct {
	ID         uuid.UUID
	Method     string
	Path       string
	Query      string
	StatusCode int
	// Authorized is true if the request carried a session cookie or a
	// bearer token. The value itself is not recorded.
	Authorized  bool
	RequestTime time.Time
	Duration    time.Duration
}

// ServerRequestsOptions configures the server request journal
type ServerRequestsOptions struct {
	// Capacity bounds the journal, 0 keeps every request.
	Capacity uint64

	// SkipPaths is a list of path prefixes that are not recorded, e.g. static
	// assets.
	SkipPaths []string

	// SessionCookie is the name of the cookie that marks a request as
	// authorized.
	SessionCookie string
}

// ServerRequests records incoming HTTP requests so tests can check what
// actually reached the server.
type ServerRequests struct {
	journal *Journal[ServerRequest]
	options ServerRequestsOptions
}

func NewServerRequests(options ServerRequestsOptions) *ServerRequests {
	return &ServerRequests{
		journal: NewJournal[ServerRequest](options.Capacity),
		options: options,
	}
}

// Journal gives access to the recorded requests.
func (c *ServerRequests) Journal() *Journal[ServerRequest] {
	return c.journal
}

// Count returns how many recorded requests have the given method and path.
// An empty method matches every method.
func (c *ServerRequests) Count(method, path string) int {
	return len(c.journal.Filter(func(r ServerRequest) bool {
		return r.Path == path && (method == "" || r.Method == method)
	}))
}

// Middleware returns an http.Handler middleware that records each request
// after it has been handled.
func (c *ServerRequests) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range c.options.SkipPaths {
			if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		req := ServerRequest{
			ID:          uuid.Must(uuid.NewV7()),
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Authorized:  c.authorized(r),
			RequestTime: time.Now(),
		}

		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(srw, r)

		req.StatusCode = srw.statusCode
		req.Duration = time.Since(req.RequestTime)
		c.journal.Add(req)
	})
}

func (c *ServerRequests) authorized(r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		return true
	}
	if c.options.SessionCookie == "" {
		return false
	}
	_, err := r.Cookie(c.options.SessionCookie)
	return err == nil
}

// statusResponseWriter remembers the status code written by a handler
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the original response writer implements it
func (w *statusResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the original writer
func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
