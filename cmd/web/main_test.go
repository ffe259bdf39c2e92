package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/config"
)

// fakeCMS serves canned collections under /api and a file under /uploads.
// Resources listed in failing answer 500; flaky ones fail a set number of
// times first.
type fakeCMS struct {
	mu      sync.Mutex
	failing map[string]bool
	flaky   map[string]int
	hits    map[string]int
	queries map[string]string
}

var fixtures = map[string]string{
	"articles": `{"data":[
		{"id":1,"documentId":"art-1","title":"Budget 2024 adopté","date":"2024-03-02","excerpt":"Le budget du secteur est adopté.","content":"**Texte** complet","image":{"url":"/uploads/budget.jpg"}},
		{"id":2,"documentId":"art-2","title":"Nouvelle licence 5G","date":"2024-05-10","excerpt":"Appel à candidatures.","content":"Détails de l'appel."}
	]}`,
	"decisions": `{"data":[
		{"id":9,"documentId":"dec-9","title":"Décision tarifaire","date":"2023-11-20","description":"Plafonds tarifaires.","pdf":{"data":{"attributes":{"url":"/uploads/decision.pdf","ext":".pdf"}}}}
	]}`,
	"procedures":      `{"data":[]}`,
	"archives":        `{"data":[{"id":4,"title":"Rapport 2019","date":"2019-06-01","file":{"url":"/uploads/rapport.docx","ext":".docx"}}]}`,
	"rapports":        `{"data":[]}`,
	"carousel-slides": `{"data":[{"id":1,"title":"Bienvenue","subtitle":"Au service des usagers","image":{"url":"/uploads/slide.jpg"}}]}`,
	"events":          `{"data":[{"id":3,"title":"Forum numérique","images":[{"url":"/uploads/e1.jpg"},{"url":"/uploads/e2.jpg"}]}]}`,
	"videos":          `{"data":[{"id":5,"title":"Conférence","youtubeId":"abc123"}]}`,
}

func (f *fakeCMS) fail(resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[resource] = true
}

func (f *fakeCMS) failTimes(resource string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flaky[resource] = n
}

func (f *fakeCMS) hitCount(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[resource]
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/uploads/") {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/")
	f.mu.Lock()
	f.queries[name] = r.URL.RawQuery
	f.hits[name]++
	failing := f.failing[name]
	if f.flaky[name] > 0 {
		f.flaky[name]--
		failing = true
	}
	f.mu.Unlock()
	if failing {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	body, ok := fixtures[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func testConfig(baseURL string) config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: "0"},
		CMS: config.CMSConfig{
			BaseURL:      baseURL,
			MediaBaseURL: baseURL,
			Timeout:      2 * time.Second,
		},
		Locale: config.LocaleConfig{
			Supported:  []string{"fr", "ht"},
			Default:    "fr",
			CookieName: "conatel_lang",
		},
		Site: config.SiteConfig{
			Name:         "CONATEL",
			PublicURL:    "https://conatel.gouv.ht",
			Environment:  "local",
			ContactEmail: "info@conatel.gouv.ht",
		},
		Session: config.SessionConfig{SigningKey: "test-signing-key"},
		Log:     config.LogConfig{Level: "error"},
	}
}

func newTestServer(t *testing.T) (http.Handler, *fakeCMS, config.Config) {
	t.Helper()
	cms := &fakeCMS{failing: map[string]bool{}, flaky: map[string]int{}, hits: map[string]int{}, queries: map[string]string{}}
	srv := httptest.NewServer(cms)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a.routes(), cms, cfg
}

func doRequest(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestHealthzOK(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestHomeRendersSectionsAndStructuredData(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseHTML(t, rec.Body.Bytes())

	if lang, _ := doc.Find("html").Attr("lang"); lang != "fr" {
		t.Fatalf("expected lang fr, got %q", lang)
	}
	if n := doc.Find(".home-news .card").Length(); n != 2 {
		t.Fatalf("expected 2 news cards, got %d", n)
	}
	if got := doc.Find(".home-news .card-title").First().Text(); !strings.Contains(got, "Nouvelle licence 5G") {
		t.Fatalf("expected newest article first, got %q", got)
	}
	if n := doc.Find(".carousel .slide").Length(); n != 1 {
		t.Fatalf("expected 1 slide, got %d", n)
	}
	if n := doc.Find(`script[type="application/ld+json"]`).Length(); n < 2 {
		t.Fatalf("expected organization and website JSON-LD, got %d scripts", n)
	}
	if !strings.Contains(doc.Find(".main-nav").Text(), "Accueil") {
		t.Fatalf("expected french nav labels")
	}
	if n := doc.Find(`link[rel="alternate"][hreflang]`).Length(); n != 3 {
		t.Fatalf("expected fr, ht and x-default alternates, got %d", n)
	}
}

func TestListFailureRendersSectionError(t *testing.T) {
	h, cms, _ := newTestServer(t)
	cms.fail("decisions")

	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("a failing section must not fail the page, got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	alert := doc.Find(`#list-results .alert-error[data-error="errors.server"]`)
	if alert.Length() != 1 {
		t.Fatalf("expected server error alert; body=%s", rec.Body.String())
	}
	if msg := alert.Find("p").Text(); !strings.Contains(msg, "500") {
		t.Fatalf("expected status code in message, got %q", msg)
	}
	retry, ok := alert.Find("a.retry").Attr("href")
	if !ok || !strings.Contains(retry, "retry=1") {
		t.Fatalf("expected retry link, got %q", retry)
	}
	if doc.Find(".sidebar .widget-chantiers li").Length() == 0 {
		t.Fatalf("sidebar widgets should still render")
	}
}

func TestListRetryRequestRefetches(t *testing.T) {
	h, cms, _ := newTestServer(t)

	cms.failTimes("decisions", 1)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions", nil))
	doc := parseHTML(t, rec.Body.Bytes())
	if doc.Find("#list-results .alert-error").Length() != 1 {
		t.Fatalf("expected error alert without retry")
	}

	cms.failTimes("decisions", 1)
	before := cms.hitCount("decisions")
	rec = doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions?retry=1", nil))
	doc = parseHTML(t, rec.Body.Bytes())
	if doc.Find("#list-results .alert-error").Length() != 0 {
		t.Fatalf("retry request should recover; body=%s", rec.Body.String())
	}
	if doc.Find("#list-results .card").Length() != 1 {
		t.Fatalf("expected the decision card after retry")
	}
	if got := cms.hitCount("decisions") - before; got != 2 {
		t.Fatalf("expected 2 fetches for a retry request, got %d", got)
	}
}

func TestListFetchesWholeCollection(t *testing.T) {
	h, cms, _ := newTestServer(t)
	doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions", nil))

	cms.mu.Lock()
	q := cms.queries["decisions"]
	cms.mu.Unlock()
	values, err := url.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse query %q: %v", q, err)
	}
	if values.Get("locale") != "fr" {
		t.Fatalf("expected locale=fr, got %q", q)
	}
	if values.Get("pagination[pageSize]") != "100" {
		t.Fatalf("expected pageSize 100, got %q", q)
	}
}

func TestListDetailModal(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions?id=dec-9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	modal := doc.Find("#detail")
	if modal.Length() != 1 {
		t.Fatalf("expected detail modal; body=%s", rec.Body.String())
	}
	if got := strings.TrimSpace(modal.Find("#detail-title").Text()); got != "Décision tarifaire" {
		t.Fatalf("unexpected title %q", got)
	}
	if href, _ := modal.Find("a.download").Attr("href"); href != "/decisions/dec-9/download" {
		t.Fatalf("unexpected download link %q", href)
	}
	if closeURL, _ := modal.Find("a.modal-close").Attr("href"); strings.Contains(closeURL, "id=") {
		t.Fatalf("close link must drop id, got %q", closeURL)
	}
	links := modal.Find(".share a")
	if links.Length() != 4 {
		t.Fatalf("expected 4 share links, got %d", links.Length())
	}
	links.Each(func(_ int, s *goquery.Selection) {
		if rel, _ := s.Attr("rel"); rel != "noopener noreferrer" {
			t.Fatalf("share link without noopener: %q", rel)
		}
	})
	if !strings.Contains(doc.Find("title").Text(), "Décision tarifaire") {
		t.Fatalf("expected item title in document title")
	}
}

func TestListUnknownIDShowsNotice(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/actualites?id=nope", nil))
	doc := parseHTML(t, rec.Body.Bytes())
	if doc.Find("#detail").Length() != 0 {
		t.Fatalf("unexpected modal for unknown id")
	}
	if doc.Find(".alert-info").Length() != 1 {
		t.Fatalf("expected missing notice")
	}
}

func TestListHTMXReturnsFragment(t *testing.T) {
	h, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/actualites?q=budget", nil)
	req.Header.Set("HX-Request", "true")
	rec := doRequest(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Fatalf("fragment must not include the layout")
	}
	if got := rec.Header().Get("HX-Push-Url"); got != "/actualites?q=budget" {
		t.Fatalf("unexpected HX-Push-Url %q", got)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	if n := doc.Find("#list-results .card").Length(); n != 1 {
		t.Fatalf("expected 1 search hit, got %d", n)
	}
	if got := doc.Find(".list-heading").Text(); !strings.Contains(got, "budget") {
		t.Fatalf("expected search heading, got %q", got)
	}
}

func TestArchivesFilterByType(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/archives?type=pdf", nil))
	doc := parseHTML(t, rec.Body.Bytes())
	if n := doc.Find("#list-results .card").Length(); n != 0 {
		t.Fatalf("docx archive must not match pdf filter, got %d cards", n)
	}
	if doc.Find("#list-results .empty").Length() != 1 {
		t.Fatalf("expected no-results message")
	}
	if sel, _ := doc.Find(`#list-type option[selected]`).Attr("value"); sel != "pdf" {
		t.Fatalf("expected pdf option selected, got %q", sel)
	}
}

func TestLanguageOverridePersists(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/?hl=ht", nil))
	doc := parseHTML(t, rec.Body.Bytes())
	if lang, _ := doc.Find("html").Attr("lang"); lang != "ht" {
		t.Fatalf("expected ht, got %q", lang)
	}
	if !strings.Contains(doc.Find(".main-nav").Text(), "Akèy") {
		t.Fatalf("expected creole nav labels")
	}
	var persisted bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "conatel_lang" && c.Value == "ht" {
			persisted = true
		}
	}
	if !persisted {
		t.Fatalf("expected conatel_lang cookie")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: "conatel_lang", Value: "ht"})
	next.Header.Set("Accept-Language", "fr-FR")
	rec = doRequest(t, h, next)
	if got := rec.Header().Get("Content-Language"); got != "ht" {
		t.Fatalf("stored choice must win over Accept-Language, got %q", got)
	}
}

func TestLanguageSwitchForm(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions", nil))
	cookies := rec.Result().Cookies()
	doc := parseHTML(t, rec.Body.Bytes())
	token, _ := doc.Find(`.lang-switch input[name="csrf_token"]`).Attr("value")
	if token == "" {
		t.Fatalf("expected csrf token in language form")
	}

	form := url.Values{"csrf_token": {token}, "lang": {"ht"}, "next": {"/decisions"}}
	req := httptest.NewRequest(http.MethodPost, "/langue", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = doRequest(t, h, withCookies(req, cookies))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/decisions" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	form.Set("next", "//evil.example")
	req = httptest.NewRequest(http.MethodPost, "/langue", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = doRequest(t, h, withCookies(req, cookies))
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("open redirect not blocked: %q", loc)
	}
}

func TestContactRequiresCSRF(t *testing.T) {
	h, _, _ := newTestServer(t)
	form := url.Values{"name": {"Jean"}, "email": {"jean@example.ht"}, "message": {"Bonjour"}}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := doRequest(t, h, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rec.Code)
	}
}

func TestContactValidationAndSubmit(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/contact", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	doc := parseHTML(t, rec.Body.Bytes())
	token, _ := doc.Find(`.contact form input[name="csrf_token"]`).Attr("value")
	if token == "" {
		t.Fatalf("expected csrf token in contact form")
	}

	post := func(form url.Values) *httptest.ResponseRecorder {
		form.Set("csrf_token", token)
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return doRequest(t, h, withCookies(req, cookies))
	}

	rec = post(url.Values{"name": {"Jean"}, "email": {"pas-un-courriel"}, "message": {"Bonjour"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	doc = parseHTML(t, rec.Body.Bytes())
	if got := doc.Find(`.error[data-field="email"]`).Text(); got != "Adresse courriel invalide." {
		t.Fatalf("unexpected email error %q", got)
	}
	if v, _ := doc.Find(`input[name="name"]`).Attr("value"); v != "Jean" {
		t.Fatalf("expected submitted values to be kept, got %q", v)
	}

	rec = post(url.Values{"name": {"Jean"}, "email": {"jean@example.ht"}, "subject": {"Plainte"}, "message": {"Bonjour"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc = parseHTML(t, rec.Body.Bytes())
	if ref := doc.Find(".reference").Text(); !strings.HasPrefix(ref, "CT-") {
		t.Fatalf("expected reference, got %q", ref)
	}
}

func TestGalleryRendersAlbumAndVideos(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/galerie?slide=-1&video=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	if src, _ := doc.Find(".slideshow img").Attr("src"); !strings.HasSuffix(src, "/uploads/e2.jpg") {
		t.Fatalf("slide -1 should wrap to the last image, got %q", src)
	}
	if n := doc.Find(".gallery-videos .video").Length(); n != 1 {
		t.Fatalf("expected 1 video, got %d", n)
	}
	if src, _ := doc.Find(".video-frame iframe").Attr("src"); !strings.Contains(src, "abc123") {
		t.Fatalf("expected player for the selected video, got %q", src)
	}
}

func TestSearchGroupsResults(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/recherche?q=tarif", nil))
	doc := parseHTML(t, rec.Body.Bytes())
	group := doc.Find(`.search-group[data-resource="decisions"]`)
	if group.Find(".card").Length() != 1 {
		t.Fatalf("expected decision hit; body=%s", rec.Body.String())
	}
	if doc.Find(`.search-group[data-resource="articles"] .card`).Length() != 0 {
		t.Fatalf("unexpected article hit")
	}
}

func TestDownloadStreamsAttachment(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/decisions/dec-9/download", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("expected file body")
	}
}

func TestNotFoundPage(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/introuvable", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	if robots, _ := doc.Find(`meta[name="robots"]`).Attr("content"); robots != "noindex" {
		t.Fatalf("expected noindex, got %q", robots)
	}
}

func TestStaticAssetsCached(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	if rec = doRequest(t, h, req); rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}
}

func TestListCommandPrintsTable(t *testing.T) {
	_, _, cfg := newTestServer(t)
	var out bytes.Buffer
	err := runList(context.Background(), cfg, "articles", &listOptions{page: 1, typ: "all"}, &out)
	if err != nil {
		t.Fatalf("runList: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if !strings.HasPrefix(lines[0], "KEY") {
		t.Fatalf("expected header, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "art-2") || !strings.Contains(lines[2], "art-1") {
		t.Fatalf("expected newest first:\n%s", out.String())
	}
}

func TestListCommandJSON(t *testing.T) {
	_, _, cfg := newTestServer(t)
	var out bytes.Buffer
	opts := &listOptions{page: 1, typ: "all", search: "licence", locale: "ht", json: true}
	if err := runList(context.Background(), cfg, "articles", opts, &out); err != nil {
		t.Fatalf("runList: %v", err)
	}
	var got listOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Locale != "ht" || got.Total != 1 || len(got.Items) != 1 {
		t.Fatalf("unexpected output %+v", got)
	}
	if got.Items[0].Title != "Nouvelle licence 5G" {
		t.Fatalf("unexpected item %q", got.Items[0].Title)
	}
}

func TestListCommandUnknownResource(t *testing.T) {
	_, _, cfg := newTestServer(t)
	err := runList(context.Background(), cfg, "nope", &listOptions{page: 1}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown resource") {
		t.Fatalf("expected unknown resource error, got %v", err)
	}
}

func TestListCommandRetries(t *testing.T) {
	_, cms, cfg := newTestServer(t)

	cms.failTimes("articles", 2)
	err := runList(context.Background(), cfg, "articles", &listOptions{page: 1, typ: "all", retries: 1}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected server failure after one retry, got %v", err)
	}

	cms.failTimes("articles", 1)
	var out bytes.Buffer
	if err := runList(context.Background(), cfg, "articles", &listOptions{page: 1, typ: "all", retries: 2}, &out); err != nil {
		t.Fatalf("runList: %v", err)
	}
	if !strings.Contains(out.String(), "art-2") {
		t.Fatalf("expected articles after retry:\n%s", out.String())
	}
}

func TestAboutListsFormerDirectors(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := doRequest(t, h, httptest.NewRequest(http.MethodGet, "/a-propos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.Bytes())
	leaders := doc.Find(".former-dgs .leader")
	if leaders.Length() != 3 {
		t.Fatalf("expected 3 former directors, got %d", leaders.Length())
	}
	if got := leaders.First().Find(".avatar").Text(); got != "JB" {
		t.Fatalf("expected initials avatar, got %q", got)
	}
}
