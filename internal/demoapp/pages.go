package demoapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofrs/uuid"
)

type pageData struct {
	Title string
	User  *User
	Error string
	Flash string
	Form  map[string]string

	Subject  *User
	Users    []User
	Products []Product
	Tags     []Tag
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if u := userFromContext(r.Context()); !u.ID.IsNil() {
		data.User = &u
	}

	templ.Handler(pageView(name, data),
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			a.logger.Error("Rendering page failed", slog.String("page", name), slog.Any("error", err))
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

func (a *App) root(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.currentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) getLogin(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (a *App) postLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	u, ok := a.store.authenticate(email, r.PostFormValue("password"))
	if !ok {
		a.render(w, r, http.StatusUnauthorized, "login", pageData{
			Title: "Sign in",
			Error: "Invalid email or password",
			Form:  map[string]string{"email": email},
		})
		return
	}

	a.startSession(w, u)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (a *App) postLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		a.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) getRegister(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "register", pageData{Title: "Create account"})
}

func (a *App) postRegister(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{
		"name":  r.PostFormValue("name"),
		"email": r.PostFormValue("email"),
	}
	fail := func(msg string) {
		a.render(w, r, http.StatusUnprocessableEntity, "register", pageData{Title: "Create account", Error: msg, Form: form})
	}

	password := r.PostFormValue("password")
	if _, taken := a.store.userByEmail(strings.TrimSpace(form["email"])); taken {
		fail("Email already in use")
		return
	}
	if len(password) < 8 {
		fail("Password must be at least 8 characters")
		return
	}
	if password != r.PostFormValue("confirm") {
		fail("Passwords do not match")
		return
	}

	u, err := a.store.createUser(form["name"], form["email"], password, "editor")
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrEmailTaken):
		fail("Email already in use")
		return
	case errors.As(err, &validationErr):
		fail(validationErr.Message)
		return
	case err != nil:
		fail("Something went wrong")
		return
	}

	a.startSession(w, u)
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}

func (a *App) getOnboarding(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "onboarding", pageData{Title: "Welcome"})
}

func (a *App) getDashboard(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Dashboard"})
}

func (a *App) getSettings(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "settings", pageData{Title: "Settings"})
}

func (a *App) getProducts(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Products"}
	if r.URL.Query().Get("saved") == "1" {
		data.Flash = "Product saved successfully"
	}
	a.render(w, r, http.StatusOK, "products", data)
}

func (a *App) getProductForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "product_form", pageData{Title: "New product"})
}

func (a *App) postProduct(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{
		"name":        r.PostFormValue("name"),
		"sku":         r.PostFormValue("sku"),
		"price":       r.PostFormValue("price"),
		"description": r.PostFormValue("description"),
	}
	fail := func(msg string) {
		a.render(w, r, http.StatusUnprocessableEntity, "product_form", pageData{Title: "New product", Error: msg, Form: form})
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(form["price"]), 64)
	if err != nil {
		fail("Price must be a number")
		return
	}

	_, err = a.store.createProduct(Product{
		Name:        form["name"],
		SKU:         form["sku"],
		Price:       price,
		Description: form["description"],
	})
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		fail(validationErr.Message)
		return
	} else if err != nil {
		fail("Something went wrong")
		return
	}

	http.Redirect(w, r, "/products?saved=1", http.StatusSeeOther)
}

func (a *App) getUsers(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "users", pageData{Title: "Users", Users: a.store.allUsers()})
}

func (a *App) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	subject, err := a.store.user(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	products, _ := a.store.userProducts(id)
	a.render(w, r, http.StatusOK, "user", pageData{Title: subject.Name, Subject: &subject, Products: products})
}

func (a *App) getSearch(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "search", pageData{Title: "Search"})
}

func (a *App) getAdmin(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "admin", pageData{Title: "Admin"})
}

func (a *App) getReports(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "reports", pageData{Title: "Reports"})
}

func (a *App) getReportForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "report_form", pageData{Title: "New report"})
}

func (a *App) postReport(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	if _, err := a.store.addReport(name); err != nil {
		a.render(w, r, http.StatusUnprocessableEntity, "report_form", pageData{
			Title: "New report",
			Error: err.(*ValidationError).Message,
		})
		return
	}
	http.Redirect(w, r, "/reports", http.StatusSeeOther)
}

func (a *App) getTags(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "tags", pageData{Title: "Tags", Tags: a.store.allTags()})
}

func (a *App) postTag(w http.ResponseWriter, r *http.Request) {
	if _, err := a.store.addTag(r.PostFormValue("name")); err != nil {
		a.render(w, r, http.StatusUnprocessableEntity, "tags", pageData{
			Title: "Tags",
			Error: err.(*ValidationError).Message,
			Tags:  a.store.allTags(),
		})
		return
	}
	http.Redirect(w, r, "/tags/new", http.StatusSeeOther)
}

func (a *App) getCheckout(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "checkout", pageData{Title: "Checkout"})
}
