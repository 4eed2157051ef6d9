// Package demoapp is a small in-memory shop application used as the system
// under test of the acceptance suite. It serves HTML pages with a bit of
// client-side JavaScript and a JSON API behind cookie sessions or bearer
// tokens.
package demoapp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/e2ekit/collector"
)

const (
	// SessionCookie is the name of the browser session cookie.
	SessionCookie = "session"
	// DefaultAPIToken is accepted as bearer token and acts as the admin user.
	DefaultAPIToken = "demo-api-token"

	AdminName     = "Admin"
	AdminEmail    = "admin@example.com"
	AdminPassword = "password123"
)

type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// APIToken is a static bearer token acting as the admin user.
	// Default: DefaultAPIToken
	APIToken string
	// SessionIdleTimeout default: DefaultSessionIdleTimeout
	SessionIdleTimeout time.Duration
	// SeedProducts adds a few products on start.
	SeedProducts bool
}

type App struct {
	store    *store
	sessions *SessionManager
	requests *collector.ServerRequests
	logger   *slog.Logger
	apiToken string
	adminID  uuid.UUID

	handler http.Handler
}

// New creates the application with the admin user seeded.
func New(options Options) *App {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	apiToken := options.APIToken
	if apiToken == "" {
		apiToken = DefaultAPIToken
	}

	a := &App{
		store:    newStore(),
		sessions: NewSessionManager(options.SessionIdleTimeout, logger),
		requests: collector.NewServerRequests(collector.ServerRequestsOptions{
			Capacity:      10_000,
			SessionCookie: SessionCookie,
		}),
		logger:   logger,
		apiToken: apiToken,
	}

	admin, err := a.store.createUser(AdminName, AdminEmail, AdminPassword, "admin")
	if err != nil {
		panic(err)
	}
	a.adminID = admin.ID

	if options.SeedProducts {
		for _, p := range []Product{
			{Name: "Playwright Handbook", SKU: "BOOK-001", Price: 39.90, Category: "Books"},
			{Name: "Gopher Mug", SKU: "MUG-001", Price: 12.50, Category: "Merchandise"},
		} {
			if _, err := a.store.createProduct(p); err != nil {
				panic(err)
			}
		}
	}

	mux := http.NewServeMux()
	a.routes(mux)
	a.handler = a.requests.Middleware(a.logRequests(mux))

	return a
}

func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.root)
	mux.HandleFunc("GET /login", a.getLogin)
	mux.HandleFunc("POST /login", a.postLogin)
	mux.HandleFunc("POST /logout", a.postLogout)
	mux.HandleFunc("GET /register", a.getRegister)
	mux.HandleFunc("POST /register", a.postRegister)

	mux.HandleFunc("GET /dashboard", a.page(a.getDashboard))
	mux.HandleFunc("GET /onboarding", a.page(a.getOnboarding))
	mux.HandleFunc("GET /settings", a.page(a.getSettings))
	mux.HandleFunc("GET /products", a.page(a.getProducts))
	mux.HandleFunc("GET /products/new", a.page(a.getProductForm))
	mux.HandleFunc("POST /products", a.page(a.postProduct))
	mux.HandleFunc("GET /users", a.page(a.getUsers))
	mux.HandleFunc("GET /users/{id}", a.page(a.getUser))
	mux.HandleFunc("GET /search", a.page(a.getSearch))
	mux.HandleFunc("GET /admin", a.page(a.getAdmin))
	mux.HandleFunc("GET /reports", a.page(a.getReports))
	mux.HandleFunc("GET /reports/new", a.page(a.getReportForm))
	mux.HandleFunc("POST /reports", a.page(a.postReport))
	mux.HandleFunc("GET /tags/new", a.page(a.getTags))
	mux.HandleFunc("POST /tags", a.page(a.postTag))
	mux.HandleFunc("GET /checkout", a.page(a.getCheckout))

	mux.HandleFunc("GET /api/health", a.apiHealth)
	mux.HandleFunc("POST /api/auth/login", a.apiLogin)
	mux.HandleFunc("GET /api/users", a.api(a.apiListUsers))
	mux.HandleFunc("POST /api/users", a.api(a.apiCreateUser))
	mux.HandleFunc("GET /api/users/{id}", a.api(a.apiGetUser))
	mux.HandleFunc("DELETE /api/users/{id}", a.api(a.apiDeleteUser))
	mux.HandleFunc("GET /api/users/{id}/products", a.api(a.apiListUserProducts))
	mux.HandleFunc("POST /api/users/{id}/products", a.api(a.apiAssignProduct))
	mux.HandleFunc("GET /api/products", a.api(a.apiListProducts))
	mux.HandleFunc("POST /api/products", a.api(a.apiCreateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", a.api(a.apiDeleteProduct))
	mux.HandleFunc("GET /api/dashboard/stats", a.api(a.apiStats))
	mux.HandleFunc("GET /api/search", a.api(a.apiSearch))
	mux.HandleFunc("GET /api/admin/overview", a.api(a.apiAdminOverview))
	mux.HandleFunc("GET /api/reports", a.api(a.apiListReports))
	mux.HandleFunc("POST /api/payment", a.api(a.apiPayment))
	mux.HandleFunc("/api/", a.apiNotFound)
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Requests records every request that reached the application.
func (a *App) Requests() *collector.ServerRequests {
	return a.requests
}

// APIToken returns the static bearer token.
func (a *App) APIToken() string {
	return a.apiToken
}

// Close stops background work.
func (a *App) Close() {
	a.sessions.Close()
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("Handled request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

type userCtxKey struct{}

// currentUser resolves the user of a request from the session cookie or an
// Authorization bearer token.
func (a *App) currentUser(r *http.Request) (User, bool) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if u, ok := a.sessionUser(c.Value); ok {
			return u, true
		}
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return User{}, false
	}
	if token == a.apiToken {
		u, err := a.store.user(a.adminID)
		return u, err == nil
	}
	return a.sessionUser(token)
}

func (a *App) sessionUser(token string) (User, bool) {
	userID, ok := a.sessions.Get(token)
	if !ok {
		return User{}, false
	}
	u, err := a.store.user(userID)
	return u, err == nil
}

func userFromContext(ctx context.Context) User {
	u, _ := ctx.Value(userCtxKey{}).(User)
	return u
}

// page requires a logged-in user and redirects to the login form otherwise.
func (a *App) page(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := a.currentUser(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	}
}

// api requires a logged-in user and answers 401 otherwise.
func (a *App) api(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := a.currentUser(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	}
}

func (a *App) startSession(w http.ResponseWriter, u User) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    a.sessions.Create(u.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
