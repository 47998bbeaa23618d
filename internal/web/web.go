// Package web serves the cookie-guarded frontend pages.
//
// The username cookie is the whole session: its presence means logged in.
// Nothing here talks to the users API.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	UsernameCookie = "username"
	flashCookie    = "flash"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Username string
	Flash    string
}

type Pages struct {
	pages  map[string]*template.Template
	secure bool
}

// New parses one template set per page so each can define its own content.
func New(secureCookies bool) (*Pages, error) {
	p := &Pages{pages: map[string]*template.Template{}, secure: secureCookies}
	for _, name := range []string{"login", "register", "dashboard", "logout"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		p.pages[name] = tmpl
	}
	return p, nil
}

func (p *Pages) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", p.home)
	r.Post("/", p.login)
	r.Get("/register", p.registerForm)
	r.Post("/register", p.register)
	r.Get("/dashboard", p.dashboard)
	r.Get("/logout", p.logoutForm)
	r.Post("/logout", p.logout)

	return r
}

func (p *Pages) home(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUsername(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	p.render(w, http.StatusOK, "login", pageData{Flash: p.takeFlash(w, r)})
}

func (p *Pages) login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	if username == "" {
		p.render(w, http.StatusBadRequest, "login", pageData{Flash: "Username is required"})
		return
	}

	http.SetCookie(w, p.cookie(UsernameCookie, url.QueryEscape(username)))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) registerForm(w http.ResponseWriter, _ *http.Request) {
	p.render(w, http.StatusOK, "register", pageData{})
}

func (p *Pages) register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	if username == "" {
		p.render(w, http.StatusBadRequest, "register", pageData{Flash: "Username is required"})
		return
	}

	http.SetCookie(w, p.cookie(flashCookie, url.QueryEscape("User Registered: "+username)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (p *Pages) dashboard(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	p.render(w, http.StatusOK, "dashboard", pageData{Username: username})
}

func (p *Pages) logoutForm(w http.ResponseWriter, _ *http.Request) {
	p.render(w, http.StatusOK, "logout", pageData{})
}

func (p *Pages) logout(w http.ResponseWriter, r *http.Request) {
	expired := p.cookie(UsernameCookie, "")
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// takeFlash reads the one-shot message and expires it.
func (p *Pages) takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}

	expired := p.cookie(flashCookie, "")
	expired.MaxAge = -1
	http.SetCookie(w, expired)

	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := p.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("render page failed", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func currentUsername(r *http.Request) (string, bool) {
	c, err := r.Cookie(UsernameCookie)
	if err != nil || c.Value == "" {
		return "", false
	}

	username, err := url.QueryUnescape(c.Value)
	if err != nil || username == "" {
		return "", false
	}
	return username, true
}
