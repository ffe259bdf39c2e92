package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/format"
	"conatel.gouv.ht/web/internal/handlers"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/observability"
)

// renderer parses layout.html and partials/*.html once, then clones that set
// for every pages/*.html so each page can define its own "content".
type renderer struct {
	fsys  fs.FS
	dev   bool
	funcs template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

func newRenderer(fsys fs.FS, dev bool, bundle *i18n.Bundle) *renderer {
	return &renderer{
		fsys: fsys,
		dev:  dev,
		funcs: template.FuncMap{
			"t":  bundle.T,
			"tf": bundle.Tf,
			"jsonld": func(s string) template.JS {
				return template.JS(s)
			},
			"year": func() int { return time.Now().Year() },
			"add":  func(a, b int) int { return a + b },
			"dict": func(kv ...any) (map[string]any, error) {
				if len(kv)%2 != 0 {
					return nil, fmt.Errorf("dict: odd number of arguments")
				}
				m := make(map[string]any, len(kv)/2)
				for i := 0; i < len(kv); i += 2 {
					k, ok := kv[i].(string)
					if !ok {
						return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
					}
					m[k] = kv[i+1]
				}
				return m, nil
			},
			"upper":     strings.ToUpper,
			"fmtNumber": format.FmtNumber,
		},
	}
}

func (v *renderer) parse() (map[string]*template.Template, error) {
	base, err := template.New("_root").Funcs(v.funcs).ParseFS(v.fsys, "layout.html", "partials/*.html")
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(v.fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(v.fsys, f); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return pages, nil
}

func (v *renderer) load() error {
	pages, err := v.parse()
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.pages = pages
	v.mu.Unlock()
	return nil
}

// lookup returns the template set for page. In dev mode templates are
// reparsed on each request.
func (v *renderer) lookup(page string) (*template.Template, error) {
	if v.dev {
		if err := v.load(); err != nil {
			return nil, err
		}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.pages == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	t, ok := v.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	return t, nil
}

// execute renders name from page's set into a buffer so a failing template
// never leaves a half-written response.
func (v *renderer) execute(page, name string, data any) ([]byte, error) {
	t, err := v.lookup(page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPage executes the base layout for page.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, page string, vm handlers.PageData) {
	a.renderStatus(w, r, http.StatusOK, page, "base", vm)
}

// renderFragment executes a single named block of page, for htmx swaps.
func (a *app) renderFragment(w http.ResponseWriter, r *http.Request, page, name string, data any) {
	a.renderStatus(w, r, http.StatusOK, page, name, data)
}

func (a *app) renderStatus(w http.ResponseWriter, r *http.Request, status int, page, name string, data any) {
	body, err := a.views.execute(page, name, data)
	if err != nil {
		observability.FromContext(r.Context()).Error("render template",
			zap.String("page", page),
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
