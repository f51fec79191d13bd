package httpapi

import (
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
)

// pageTemplates maps page routes onto template file names. Everything else
// under "/" falls back to the main page with a 404 status.
var pageTemplates = map[string]string{
	"/":                     "main.html",
	"/index.html":           "main.html",
	"/main.html":            "main.html",
	"/login.html":           "login.html",
	"/signup.html":          "signup.html",
	"/product.html":         "product.html",
	"/customer.html":        "customer.html",
	"/payment-info.html":    "payment-info.html",
	"/employee.html":        "employee.html",
	"/order.html":           "order.html",
	"/admin.html":           "admin.html",
	"/admin-employees.html": "admin-employees.html",
	"/admin-products.html":  "admin-products.html",
	"/admin-stock.html":     "admin-stock.html",
	"/admin-purchases.html": "admin-purchases.html",
	"/admin-orders.html":    "admin-orders.html",
}

type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer(templatesDir string) (*pageRenderer, error) {
	r := &pageRenderer{}
	if templatesDir == "" {
		return r, nil
	}

	templates, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		// A missing or empty template directory leaves the JSON API fully
		// functional, so start without pages rather than failing.
		log.Printf("[httpapi] WARN: templates unavailable in %s: %v", templatesDir, err)
		return r, nil
	}
	r.templates = templates
	return r, nil
}

func (p *pageRenderer) render(w http.ResponseWriter, status int, name string) {
	if p.templates == nil || p.templates.Lookup(name) == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<!doctype html><html><body><h1>Ashhab Sport</h1></body></html>"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.templates.ExecuteTemplate(w, name, nil); err != nil {
		log.Printf("[httpapi] WARN: render %s: %v", name, err)
	}
}

func (a *API) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, errNotFoundRoute)
		return
	}

	if name, ok := pageTemplates[r.URL.Path]; ok {
		a.pages.render(w, http.StatusOK, name)
		return
	}
	// Unknown routes render the main page so client-side navigation still
	// lands somewhere useful.
	a.pages.render(w, http.StatusNotFound, "main.html")
}
