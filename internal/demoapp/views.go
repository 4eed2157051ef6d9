package demoapp

import (
	"context"
	"embed"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
)

//go:embed scripts
var scriptFS embed.FS

const styles = `body { font-family: system-ui, sans-serif; margin: 0; color: #1f2328; }
header { display: flex; gap: 1rem; align-items: center; padding: .75rem 1.5rem; background: #f6f8fa; border-bottom: 1px solid #d0d7de; }
header nav { flex: 1; display: flex; gap: .75rem; }
main { padding: 1.5rem; max-width: 48rem; }
.avatar { display: inline-grid; place-items: center; width: 2rem; height: 2rem; border-radius: 50%; background: #0969da; color: #fff; font-weight: 600; }
form.stacked { display: grid; gap: .5rem; max-width: 24rem; }
[role=alert] { padding: .75rem; margin-bottom: 1rem; background: #ffebe9; border: 1px solid #ff8182; }
[role=status] { padding: .75rem; margin-bottom: 1rem; background: #dafbe1; border: 1px solid #4ac26b; }
.spinner { width: 1.5rem; height: 1.5rem; border: 3px solid #d0d7de; border-top-color: #0969da; border-radius: 50%; animation: spin 1s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
`

// htmlWriter keeps the first write error so views can be written as a flat
// sequence of calls.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (w *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

// text writes s escaped for element content and quoted attribute values.
func (w *htmlWriter) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *htmlWriter) alert(msg string) {
	if msg != "" {
		w.raw(`<div role="alert">`)
		w.text(msg)
		w.raw("</div>\n")
	}
}

func (w *htmlWriter) script(name string) {
	src, err := scriptFS.ReadFile("scripts/" + name + ".js")
	if err != nil {
		w.err = err
		return
	}
	w.raw("<script>\n", string(src), "</script>\n")
}

type view func(w *htmlWriter, data pageData)

var views = map[string]view{
	"login":        loginView,
	"register":     registerView,
	"onboarding":   onboardingView,
	"dashboard":    scriptView("Dashboard", `<section data-testid="stats" aria-busy="true">Loading statistics</section>`, "dashboard"),
	"settings":     settingsView,
	"products":     productsView,
	"product_form": productFormView,
	"users":        usersView,
	"user":         userView,
	"search":       scriptView("Search", `<input id="q" type="search" aria-label="Search products and users" autocomplete="off">`+"\n"+`<ul id="results"></ul>`, "search"),
	"admin":        scriptView("Admin", `<div id="admin-content" aria-live="polite">Loading</div>`, "admin"),
	"reports":      reportsView,
	"report_form":  reportFormView,
	"tags":         tagsView,
	"checkout":     checkoutView,
}

// pageView renders the named view inside the shared layout.
func pageView(name string, data pageData) templ.Component {
	return layout(data, templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &htmlWriter{w: out}
		views[name](w, data)
		return w.err
	}))
}

func layout(data pageData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &htmlWriter{w: out}
		w.raw(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`)
		w.text(data.Title)
		w.raw(" | Demo Shop</title>\n<style>\n", styles, "</style>\n</head>\n<body>\n")
		if u := data.User; u != nil {
			w.raw(`<header>
  <span class="avatar" data-testid="user-avatar" title="`)
			w.text(u.Name)
			w.raw(`">`)
			w.text(initial(u.Name))
			w.raw(`</span>
  <nav aria-label="Main">
    <a href="/dashboard">Home</a>
    <a href="/products">Catalog</a>
    <a href="/users">People</a>
    <a href="/search">Find</a>
  </nav>
  <span>`)
			w.text(u.Email)
			w.raw(`</span>
  <form method="post" action="/logout"><button type="submit">Logout</button></form>
</header>
`)
		}
		w.raw("<main>\n")
		if w.err != nil {
			return w.err
		}
		if err := content.Render(ctx, out); err != nil {
			return err
		}
		w.raw("</main>\n</body>\n</html>\n")
		return w.err
	})
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

// scriptView is a page whose content is filled in by its script.
func scriptView(title, body, script string) view {
	return func(w *htmlWriter, _ pageData) {
		w.raw("<h1>", title, "</h1>\n", body, "\n")
		w.script(script)
	}
}

func input(w *htmlWriter, id, label, attrs, value string) {
	w.raw(`  <label for="`, id, `">`, label, "</label>\n")
	w.raw(`  <input id="`, id, `" name="`, id, `" `, attrs, ` value="`)
	w.text(value)
	w.raw("\">\n")
}

func loginView(w *htmlWriter, data pageData) {
	w.raw("<h1>Sign in</h1>\n")
	w.alert(data.Error)
	w.raw(`<form class="stacked" method="post" action="/login">` + "\n")
	input(w, "email", "Email", `type="text" inputmode="email" autocomplete="username"`, data.Form["email"])
	w.raw(`  <label for="password">Password</label>
  <input id="password" name="password" type="password" autocomplete="current-password">
  <button type="submit">Log in</button>
</form>
<p>New here? <a href="/register">Register</a></p>
`)
}

func registerView(w *htmlWriter, data pageData) {
	w.raw("<h1>Create your account</h1>\n")
	w.alert(data.Error)
	w.raw(`<form class="stacked" method="post" action="/register">` + "\n")
	input(w, "name", "Full Name", `type="text" autocomplete="name"`, data.Form["name"])
	input(w, "email", "Email", `type="text" inputmode="email" autocomplete="email"`, data.Form["email"])
	w.raw(`  <label for="password">Password</label>
  <input id="password" name="password" type="password" autocomplete="new-password">
  <label for="confirm">Confirm Password</label>
  <input id="confirm" name="confirm" type="password" autocomplete="new-password">
  <button type="submit">Create account</button>
</form>
<p>Already registered? <a href="/login">Sign in</a></p>
`)
}

func onboardingView(w *htmlWriter, data pageData) {
	var name string
	if data.User != nil {
		name = data.User.Name
	}
	w.raw("<h1>Welcome, ")
	w.text(name)
	w.raw("</h1>\n<p>Your account is ready. Continue to the <a href=\"/dashboard\">overview</a>.</p>\n")
}

func settingsView(w *htmlWriter, data pageData) {
	var u User
	if data.User != nil {
		u = *data.User
	}
	w.raw("<h1>Settings</h1>\n<dl>\n  <dt>Name</dt><dd>")
	w.text(u.Name)
	w.raw("</dd>\n  <dt>Role</dt><dd>")
	w.text(u.Role)
	w.raw("</dd>\n</dl>\n")
}

func productsView(w *htmlWriter, data pageData) {
	w.raw("<h1>Products</h1>\n")
	if data.Flash != "" {
		w.raw(`<div role="status">`)
		w.text(data.Flash)
		w.raw("</div>\n")
	}
	w.raw(`<p><a href="/products/new">Add product</a></p>
<ul id="product-list"></ul>
<p id="empty-state" hidden>No products found</p>
`)
	w.script("products")
}

func productFormView(w *htmlWriter, data pageData) {
	w.raw("<h1>New product</h1>\n")
	w.alert(data.Error)
	w.raw(`<form class="stacked" method="post" action="/products">` + "\n")
	input(w, "name", "Product Name", `type="text"`, data.Form["name"])
	input(w, "sku", "SKU", `type="text"`, data.Form["sku"])
	input(w, "price", "Price", `type="text" inputmode="decimal"`, data.Form["price"])
	w.raw(`  <label for="description">Description</label>
  <textarea id="description" name="description" rows="4">`)
	w.text(data.Form["description"])
	w.raw("</textarea>\n  <button type=\"submit\">Save product</button>\n</form>\n")
}

func usersView(w *htmlWriter, data pageData) {
	w.raw(`<h1>Users</h1>
<table>
  <thead><tr><th>Name</th><th>Email</th><th>Role</th></tr></thead>
  <tbody>
`)
	for _, u := range data.Users {
		w.raw(`    <tr data-testid="user-row">
      <td><a href="/users/`, u.ID.String(), `">`)
		w.text(u.Name)
		w.raw("</a></td>\n      <td>")
		w.text(u.Email)
		w.raw("</td>\n      <td>")
		w.text(u.Role)
		w.raw("</td>\n    </tr>\n")
	}
	w.raw("  </tbody>\n</table>\n")
}

func userView(w *htmlWriter, data pageData) {
	var subject User
	if data.Subject != nil {
		subject = *data.Subject
	}
	w.raw("<h1>")
	w.text(subject.Name)
	w.raw("</h1>\n<p>")
	w.text(subject.Email)
	w.raw(" (")
	w.text(subject.Role)
	w.raw(")</p>\n<h2>Assigned products</h2>\n")
	if len(data.Products) == 0 {
		w.raw("<p>No products assigned</p>\n")
		return
	}
	w.raw("<ul>\n")
	for _, p := range data.Products {
		w.raw("  <li>")
		w.text(p.Name)
		w.raw(" <small>")
		w.text(p.SKU)
		w.raw("</small></li>\n")
	}
	w.raw("</ul>\n")
}

func reportsView(w *htmlWriter, _ pageData) {
	w.raw(`<h1>Reports</h1>
<p><a href="/reports/new">New report</a></p>
<div class="spinner" data-testid="loading-spinner" role="progressbar" aria-label="Loading reports"></div>
<ul id="report-list"></ul>
`)
	w.script("reports")
}

func reportFormView(w *htmlWriter, data pageData) {
	w.raw("<h1>New report</h1>\n")
	w.alert(data.Error)
	w.raw(`<form class="stacked" method="post" action="/reports">
  <label for="name">Report Name</label>
  <input id="name" name="name" type="text">
  <button type="submit">Generate</button>
</form>
`)
}

func tagsView(w *htmlWriter, data pageData) {
	w.raw("<h1>Tags</h1>\n")
	w.alert(data.Error)
	w.raw(`<form class="stacked" method="post" action="/tags">
  <label for="name">Tag Name</label>
  <input id="name" name="name" type="text">
  <button type="submit">Add tag</button>
</form>
<ul>
`)
	for _, t := range data.Tags {
		w.raw("  <li>")
		w.text(t.Name)
		w.raw("</li>\n")
	}
	w.raw("</ul>\n")
}

func checkoutView(w *htmlWriter, _ pageData) {
	w.raw(`<h1>Checkout</h1>
<p>Total: <strong>49.90</strong></p>
<button type="button" id="pay">Pay now</button>
<p id="payment-result" aria-live="polite"></p>
`)
	w.script("checkout")
}
