package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/handlers"
	"conatel.gouv.ht/web/internal/loader"
	mw "conatel.gouv.ht/web/internal/middleware"
	"conatel.gouv.ht/web/internal/nav"
	"conatel.gouv.ht/web/internal/observability"
	"conatel.gouv.ht/web/internal/seo"
	"conatel.gouv.ht/web/internal/widgets"
)

const searchHitsPerGroup = 5

func (a *app) lang(r *http.Request) string {
	return mw.Lang(r, a.cfg.Locale.Default)
}

// page builds the layout fields shared by every page.
func (a *app) page(r *http.Request, lang, titleKey, descKey string) handlers.PageData {
	title := a.bundle.T(lang, titleKey)
	desc := a.bundle.T(lang, descKey)
	brand := a.cfg.Site.Name
	canonical := a.cfg.Site.PublicURL + r.URL.Path

	vm := handlers.PageData{
		Title:       title,
		Lang:        lang,
		Langs:       handlers.BuildLangs(lang, a.resolver.Supported(), r.URL.Path, r.URL.Query()),
		SiteName:    brand,
		Analytics:   handlers.AnalyticsFromConfig(a.cfg.Site),
		CSRFToken:   mw.CSRFToken(r),
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		Socials:     a.table.Socials,
		Header:      handlers.HeaderView{PageHeader: cms.PageHeader{Title: title, Description: desc}},
	}
	vm.SEO = seo.Meta{
		Title:       title + " | " + brand,
		Description: desc,
		Canonical:   canonical,
		OG: seo.OpenGraph{
			Title:       title + " | " + brand,
			Description: desc,
			Type:        "website",
			URL:         canonical,
			SiteName:    brand,
			Locale:      seo.OGLocale(lang),
		},
		TwitterCard: "summary_large_image",
		Alternates:  handlers.Alternates(a.cfg.Site.PublicURL, r.URL.Path, a.resolver.Supported()),
	}
	if r.URL.Path == "/" {
		sameAs := make([]string, 0, len(a.table.Socials))
		for _, s := range a.table.Socials {
			sameAs = append(sameAs, s.URL)
		}
		vm.SEO.JSONLD = append(vm.SEO.JSONLD,
			seo.JSON(seo.GovernmentOrganization(brand, a.cfg.Site.PublicURL, a.cfg.Site.PublicURL+"/static/img/logo.svg", sameAs)),
			seo.JSON(seo.WebSite(brand, a.cfg.Site.PublicURL, a.cfg.Site.PublicURL+"/recherche?q=")),
		)
	}
	return vm
}

func (a *app) fetchList(res *cms.Resource) loader.FetchFunc[[]cms.ContentItem] {
	return func(ctx context.Context, lang string) ([]cms.ContentItem, error) {
		recs, err := a.client.FetchCollection(ctx, res.Path, lang, res.ListQuery())
		if err != nil {
			return nil, err
		}
		return cms.NormalizeAll(res, recs), nil
	}
}

// loadHeader fetches the single-type page header. Missing or failing
// documents fall back to the UI strings already in defaults.
func (a *app) loadHeader(ctx context.Context, page, lang string, retry bool, defaults handlers.HeaderView) handlers.HeaderView {
	src, ok := a.table.Header(page)
	if !ok {
		return defaults
	}
	if src.TitleKey != "" {
		defaults.Title = a.bundle.T(lang, src.TitleKey)
	}
	if src.DescriptionKey != "" {
		defaults.Description = a.bundle.T(lang, src.DescriptionKey)
	}
	fallback := defaults.PageHeader
	st := loadSection(ctx, src.Path, lang, retry, loader.New(func(ctx context.Context, lang string) (cms.PageHeader, error) {
		rec, err := a.client.FetchSingle(ctx, src.Path, lang, cms.Query{})
		if err != nil {
			return cms.PageHeader{}, err
		}
		return cms.NormalizeHeader(rec, fallback), nil
	}))

	if st.Phase == loader.Success {
		defaults.PageHeader = st.Data
		return defaults
	}
	if !errors.Is(st.Err, cms.ErrNotFound) {
		a.logFailure(ctx, src.Path, st.Err)
	}
	return defaults
}

func (a *app) logFailure(ctx context.Context, resource string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logger := observability.FromContext(ctx)
	f := cms.AsFailure(err)
	fields := []zap.Field{
		zap.String("resource", resource),
		zap.String("kind", f.Kind.String()),
		zap.Int("status", f.Status),
		zap.Error(err),
	}
	if f.Kind == cms.FailureParse || f.Kind == cms.FailureConfig {
		logger.Error("content fetch failed", fields...)
		return
	}
	logger.Warn("content fetch failed", fields...)
}

type listPage struct {
	resource string
	path     string
	titleKey string
	descKey  string
	header   string
}

// listHandler serves a filterable list page. The list, the page header and
// the sidebar load concurrently and fail independently.
func (a *app) listHandler(p listPage) http.HandlerFunc {
	res, _ := a.table.Resource(p.resource)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lang := a.lang(r)
		retry := retryRequested(r)
		vm := a.page(r, lang, p.titleKey, p.descKey)

		var state loader.State[[]cms.ContentItem]
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			state = loadSection(gctx, res.Path, lang, retry, loader.NewList(a.fetchList(res)))
			return nil
		})
		g.Go(func() error {
			vm.Header = a.loadHeader(gctx, p.header, lang, retry, vm.Header)
			return nil
		})
		if !mw.IsHTMX(ctx) {
			g.Go(func() error {
				vm.Sidebar = a.sidebar.Load(gctx, lang)
				return nil
			})
		}
		_ = g.Wait()
		if state.Phase == loader.Failed {
			a.logFailure(ctx, res.Path, state.Err)
		}

		view := handlers.BuildListView(handlers.ListInput{
			Resource: res,
			State:    state,
			Query:    r.URL.Query(),
			Lang:     lang,
			Bundle:   a.bundle,
			BasePath: p.path,
			TitleKey: p.titleKey,
			Links:    a.links,
		})
		vm.Content = view
		if d := view.Detail; d != nil {
			vm.SEO.Title = d.Item.Title + " | " + a.cfg.Site.Name
			vm.SEO.OG.Title = vm.SEO.Title
			vm.SEO.OG.Type = "article"
			if d.Media != "" {
				vm.SEO.OG.Image = d.Media
			}
			vm.SEO.JSONLD = append(vm.SEO.JSONLD, d.JSONLD)
		}

		if mw.IsHTMX(ctx) {
			w.Header().Set("HX-Push-Url", r.URL.RequestURI())
			a.renderFragment(w, r, "list", "list_results", vm)
			return
		}
		a.renderPage(w, r, "list", vm)
	}
}

func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := a.lang(r)
	retry := retryRequested(r)
	vm := a.page(r, lang, "home.title", "home.description")

	slidesRes, _ := a.table.Resource("carousel-slides")
	articles, _ := a.table.Resource("articles")
	latest := widgets.LatestNews{Client: a.client, Resource: articles, Limit: 3}

	var slides, news loader.State[[]cms.ContentItem]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slides = loadSection(gctx, slidesRes.Path, lang, retry, loader.NewList(a.fetchList(slidesRes)))
		return nil
	})
	g.Go(func() error {
		news = loadSection(gctx, articles.Path, lang, retry, loader.NewList(func(ctx context.Context, lang string) ([]cms.ContentItem, error) {
			v, err := latest.Load(ctx, lang)
			if err != nil {
				return nil, err
			}
			items, _ := v.([]cms.ContentItem)
			return items, nil
		}))
		return nil
	})
	g.Go(func() error {
		vm.Header = a.loadHeader(gctx, "home", lang, retry, vm.Header)
		return nil
	})
	_ = g.Wait()
	a.logFailure(ctx, slidesRes.Path, slides.Err)
	a.logFailure(ctx, articles.Path, news.Err)

	chantiers, _ := widgets.Chantiers{Bundle: a.bundle, Items: a.table.Chantiers}.Load(ctx, lang)
	stats, _ := widgets.Stats{Bundle: a.bundle, Sets: a.table.Stats}.Load(ctx, lang)
	vm.Content = handlers.BuildHomeView(handlers.HomeInput{
		Slides:    slides,
		News:      news,
		Articles:  articles,
		Chantiers: chantiers.([]widgets.ChantierLink),
		Stats:     stats.([]widgets.Chart),
		Query:     r.URL.Query(),
		Lang:      lang,
		Bundle:    a.bundle,
		Links:     a.links,
	})
	a.renderPage(w, r, "home", vm)
}

func (a *app) galleryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := a.lang(r)
	retry := retryRequested(r)
	vm := a.page(r, lang, "gallery.title", "gallery.description")

	eventsRes, _ := a.table.Resource("events")
	videosRes, _ := a.table.Resource("videos")

	var events loader.State[[]cms.EventGallery]
	var videos loader.State[[]cms.VideoItem]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events = loadSection(gctx, eventsRes.Path, lang, retry, loader.NewList(func(ctx context.Context, lang string) ([]cms.EventGallery, error) {
			recs, err := a.client.FetchCollection(ctx, eventsRes.Path, lang, eventsRes.ListQuery())
			if err != nil {
				return nil, err
			}
			out := make([]cms.EventGallery, 0, len(recs))
			for _, rec := range recs {
				out = append(out, cms.NormalizeEvent(eventsRes, rec))
			}
			return out, nil
		}))
		return nil
	})
	g.Go(func() error {
		videos = loadSection(gctx, videosRes.Path, lang, retry, loader.NewList(func(ctx context.Context, lang string) ([]cms.VideoItem, error) {
			recs, err := a.client.FetchCollection(ctx, videosRes.Path, lang, videosRes.ListQuery())
			if err != nil {
				return nil, err
			}
			out := make([]cms.VideoItem, 0, len(recs))
			for _, rec := range recs {
				if v := cms.NormalizeVideo(videosRes, rec); v.ExternalID != "" {
					out = append(out, v)
				}
			}
			return out, nil
		}))
		return nil
	})
	g.Go(func() error {
		vm.Header = a.loadHeader(gctx, "galerie", lang, retry, vm.Header)
		return nil
	})
	_ = g.Wait()
	a.logFailure(ctx, eventsRes.Path, events.Err)
	a.logFailure(ctx, videosRes.Path, videos.Err)

	vm.Content = handlers.BuildGalleryView(handlers.GalleryInput{
		Events:        events,
		Videos:        videos,
		Query:         r.URL.Query(),
		BasePath:      "/galerie",
		VideoPageSize: videosRes.PageSize,
		Links:         a.links,
	})
	a.renderPage(w, r, "gallery", vm)
}

func (a *app) chantiersHandler(w http.ResponseWriter, r *http.Request) {
	lang := a.lang(r)
	vm := a.page(r, lang, "chantiers.title", "chantiers.description")
	vm.Content = handlers.BuildChantiersView(a.table.Chantiers, lang, a.bundle)
	vm.Sidebar = a.sidebar.Load(r.Context(), lang)
	a.renderPage(w, r, "chantiers", vm)
}

func (a *app) aboutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := a.lang(r)
	retry := retryRequested(r)
	vm := a.page(r, lang, "about.title", "about.description")
	vm.Content = handlers.BuildAboutView(a.table.FormerDGs)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vm.Header = a.loadHeader(gctx, "apropos", lang, retry, vm.Header)
		return nil
	})
	g.Go(func() error {
		vm.Sidebar = a.sidebar.Load(gctx, lang)
		return nil
	})
	_ = g.Wait()
	a.renderPage(w, r, "about", vm)
}

var searchPages = []listPage{
	{resource: "articles", path: "/actualites", titleKey: "news.title"},
	{resource: "decisions", path: "/decisions", titleKey: "decisions.title"},
	{resource: "procedures", path: "/procedures", titleKey: "procedures.title"},
	{resource: "rapports", path: "/rapports", titleKey: "reports.title"},
}

// searchHandler queries every searchable resource side by side.
func (a *app) searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := a.lang(r)
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	retry := retryRequested(r)
	vm := a.page(r, lang, "search.title", "search.description")

	sources := make([]handlers.SearchSource, len(searchPages))
	if q != "" {
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range searchPages {
			res, _ := a.table.Resource(p.resource)
			sources[i] = handlers.SearchSource{Resource: res, BasePath: p.path, TitleKey: p.titleKey}
			g.Go(func() error {
				sources[i].State = loadSection(gctx, res.Path, lang, retry, loader.NewList(a.fetchList(res)))
				return nil
			})
		}
		_ = g.Wait()
		for _, src := range sources {
			a.logFailure(ctx, src.Resource.Path, src.State.Err)
		}
	}
	vm.Content = handlers.BuildSearchView(q, sources, lang, a.bundle, a.links, searchHitsPerGroup)
	a.renderPage(w, r, "search", vm)
}

// languageHandler switches the explicit language and returns to next.
func (a *app) languageHandler(w http.ResponseWriter, r *http.Request) {
	if pref := mw.PreferenceFromContext(r.Context()); pref != nil {
		if _, err := pref.Set(r.PostFormValue("lang")); err != nil {
			observability.FromContext(r.Context()).Warn("persist locale", zap.Error(err))
		}
	}
	next := r.PostFormValue("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	lang := a.lang(r)
	vm := a.page(r, lang, "notfound.title", "notfound.description")
	vm.SEO.Robots = "noindex"
	a.renderStatus(w, r, http.StatusNotFound, "notfound", "base", vm)
}
