package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/config"
	"conatel.gouv.ht/web/internal/download"
	"conatel.gouv.ht/web/internal/handlers"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/locale"
	mw "conatel.gouv.ht/web/internal/middleware"
	"conatel.gouv.ht/web/internal/observability"
	"conatel.gouv.ht/web/internal/widgets"
	"conatel.gouv.ht/web/web"
)

const requestTimeout = 30 * time.Second

// app wires the shared, read-only collaborators of every request.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *cms.Client
	table    *cms.Table
	bundle   *i18n.Bundle
	resolver *locale.Resolver
	sessions *mw.Sessions
	views    *renderer
	sidebar  *widgets.Sidebar
	static   fs.FS
	links    handlers.Links
}

func newApp(cfg config.Config, logger *zap.Logger, clientOpts ...cms.Option) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append([]cms.Option{
		cms.WithTimeout(cfg.CMS.Timeout),
		cms.WithLogger(logger),
		cms.WithMediaBaseURL(cfg.CMS.MediaBaseURL),
	}, clientOpts...)
	client, err := cms.NewClient(cfg.CMS.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	table, err := loadTable(cfg.CMS.ResourcesFile)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"articles", "decisions", "procedures", "archives", "rapports", "carousel-slides", "events", "videos"} {
		if _, ok := table.Resource(name); !ok {
			return nil, fmt.Errorf("resources: %q is not defined", name)
		}
	}

	bundle, err := i18n.Load(web.FS, web.LocalesDir, cfg.Locale.Default, cfg.Locale.Supported)
	if err != nil {
		return nil, fmt.Errorf("load i18n: %w", err)
	}
	resolver, err := locale.NewResolver(cfg.Locale.Supported, cfg.Locale.Default)
	if err != nil {
		return nil, fmt.Errorf("locale: %w", err)
	}

	templates, err := fs.Sub(web.FS, web.TemplatesDir)
	if err != nil {
		return nil, err
	}
	if cfg.Site.Dev && cfg.Site.TemplatesDir != "" {
		// Read templates from disk so edits show up without a rebuild.
		templates = os.DirFS(filepath.Clean(cfg.Site.TemplatesDir))
	}
	views := newRenderer(templates, cfg.Site.Dev, bundle)
	if !cfg.Site.Dev {
		if err := views.load(); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
	}

	static, err := fs.Sub(web.FS, web.StaticDir)
	if err != nil {
		return nil, err
	}

	articles, _ := table.Resource("articles")
	sidebar := widgets.NewSidebar(logger,
		widgets.LatestNews{Client: client, Resource: articles},
		widgets.Chantiers{Bundle: bundle, Items: table.Chantiers},
		widgets.Stats{Bundle: bundle, Sets: table.Stats},
		widgets.Socials{Links: table.Socials},
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		table:    table,
		bundle:   bundle,
		resolver: resolver,
		sessions: mw.NewSessions(cfg.Session.SigningKey, cfg.Session.Secure, logger),
		views:    views,
		sidebar:  sidebar,
		static:   static,
		links: handlers.Links{
			Media:     client.ResolveURL,
			PublicURL: cfg.Site.PublicURL,
			SiteName:  cfg.Site.Name,
		},
	}, nil
}

func loadTable(path string) (*cms.Table, error) {
	if path == "" {
		return cms.LoadTable(web.FS, web.ResourcesFile)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources %s: %w", path, err)
	}
	return cms.ParseTable(raw)
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(a.logger))
	r.Use(observability.RequestLogger)
	r.Use(observability.Recovery)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/static/*", http.StripPrefix("/static", mw.Assets(a.static)))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(mw.HTMX)
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.resolver, a.cfg.Locale.CookieName, a.cfg.Session.Secure))
		r.Use(mw.CSRF(a.cfg.Session.Secure))
		r.Use(mw.VaryLocale)

		r.Get("/", a.homeHandler)
		r.Get("/actualites", a.listHandler(listPage{resource: "articles", path: "/actualites", titleKey: "news.title", descKey: "news.description"}))
		r.Get("/decisions", a.listHandler(listPage{resource: "decisions", path: "/decisions", titleKey: "decisions.title", descKey: "decisions.description", header: "decisions"}))
		r.Get("/procedures", a.listHandler(listPage{resource: "procedures", path: "/procedures", titleKey: "procedures.title", descKey: "procedures.description", header: "procedures"}))
		r.Get("/archives", a.listHandler(listPage{resource: "archives", path: "/archives", titleKey: "archives.title", descKey: "archives.description"}))
		r.Get("/rapports", a.listHandler(listPage{resource: "rapports", path: "/rapports", titleKey: "reports.title", descKey: "reports.description", header: "rapports"}))
		r.Get("/galerie", a.galleryHandler)
		r.Get("/chantiers", a.chantiersHandler)
		r.Get("/a-propos", a.aboutHandler)
		r.Get("/contact", a.contactHandler)
		r.Post("/contact", a.contactSubmitHandler)
		r.Get("/recherche", a.searchHandler)
		r.Post("/langue", a.languageHandler)
		r.Get("/{resource}/{id}/download", download.New(a.client, a.table, func(r *http.Request) string {
			return mw.Lang(r, a.cfg.Locale.Default)
		}).ServeHTTP)
	})

	r.NotFound(a.notFoundHandler)
	return r
}
