package handlers

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/loader"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.Load(fstest.MapFS{
		"l/fr.json": {Data: []byte(`{
			"archives.title": "Toutes les archives",
			"list.heading.search": "Résultats pour « {0} »",
			"list.heading.type": "Archives : {0}",
			"list.heading.month": "Archives de {0}",
			"types.all": "Tous",
			"types.pdf": "PDF",
			"types.image": "Images",
			"news.title": "Actualités"
		}`)},
	}, "l", "fr", []string{"fr"})
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return b
}

var archives = &cms.Resource{
	Name:     "archives",
	Path:     "archives",
	PageSize: 2,
	Search:   []string{"title"},
	Categories: []cms.Category{
		{Name: "pdf", Extensions: []string{"pdf"}},
		{Name: "image", Extensions: []string{"jpg", "png"}},
	},
}

func archiveItems() []cms.ContentItem {
	return []cms.ContentItem{
		{ID: 1, DocumentID: "a", Title: "Loi cadre", Date: "2023-05-10", Attachment: "/uploads/loi.pdf", AttachmentExt: "pdf", Resource: "archives"},
		{ID: 2, DocumentID: "b", Title: "Photo réunion", Date: "2024-02-01", Attachment: "/uploads/p.jpg", AttachmentExt: "jpg", Resource: "archives"},
		{ID: 3, DocumentID: "c", Title: "Arrêté", Date: "2024-02-20", Attachment: "/uploads/arrete.pdf", AttachmentExt: "pdf", Resource: "archives"},
	}
}

func links() Links {
	return Links{
		Media:     func(ref string) string { return "https://cms.test" + ref },
		PublicURL: "https://conatel.test",
		SiteName:  "CONATEL",
	}
}

func success(items []cms.ContentItem) loader.State[[]cms.ContentItem] {
	return loader.State[[]cms.ContentItem]{Phase: loader.Success, Locale: "fr", Data: items, Empty: len(items) == 0}
}

func TestBuildListViewFiltersAndPaginates(t *testing.T) {
	view := BuildListView(ListInput{
		Resource: archives,
		State:    success(archiveItems()),
		Query:    url.Values{"type": {"pdf"}},
		Lang:     "fr",
		Bundle:   testBundle(t),
		BasePath: "/archives",
		TitleKey: "archives.title",
		Links:    links(),
	})

	if view.Heading != "Archives : PDF" {
		t.Fatalf("unexpected heading %q", view.Heading)
	}
	var titles []string
	for _, c := range view.Cards {
		titles = append(titles, c.Item.Title)
	}
	if diff := cmp.Diff([]string{"Arrêté", "Loi cadre"}, titles); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
	if view.Cards[0].OpenURL != "https://cms.test/uploads/arrete.pdf" {
		t.Fatalf("expected pdf to open the raw file, got %q", view.Cards[0].OpenURL)
	}
	if view.Cards[0].DownloadURL != "/archives/c/download" {
		t.Fatalf("unexpected download url %q", view.Cards[0].DownloadURL)
	}
	if len(view.Types) != 3 || !view.Types[1].Selected {
		t.Fatalf("expected pdf type selected, got %+v", view.Types)
	}
	if len(view.Months) != 2 || view.Months[0].Value != "2024-02" || view.Months[0].Label != "février 2024" {
		t.Fatalf("unexpected months %+v", view.Months)
	}
}

func TestBuildListViewPageLinksKeepFilters(t *testing.T) {
	view := BuildListView(ListInput{
		Resource: archives,
		State:    success(archiveItems()),
		Query:    url.Values{"page": {"9"}},
		Lang:     "fr",
		Bundle:   testBundle(t),
		BasePath: "/archives",
		TitleKey: "archives.title",
		Links:    links(),
	})
	if view.Slice.Page != 2 || view.Slice.TotalPages != 2 {
		t.Fatalf("expected clamped page 2/2, got %d/%d", view.Slice.Page, view.Slice.TotalPages)
	}
	if view.PrevURL != "/archives" || view.NextURL != "" {
		t.Fatalf("unexpected prev/next %q %q", view.PrevURL, view.NextURL)
	}
	if view.Heading != "Toutes les archives" {
		t.Fatalf("unexpected heading %q", view.Heading)
	}
}

func TestBuildListViewOpensDetail(t *testing.T) {
	view := BuildListView(ListInput{
		Resource: archives,
		State:    success(archiveItems()),
		Query:    url.Values{"id": {"b"}, "q": {"photo"}},
		Lang:     "fr",
		Bundle:   testBundle(t),
		BasePath: "/archives",
		TitleKey: "archives.title",
		Links:    links(),
	})
	if view.Detail == nil {
		t.Fatalf("expected detail view")
	}
	d := view.Detail
	if !d.IsImage || d.FileURL != "https://cms.test/uploads/p.jpg" {
		t.Fatalf("unexpected detail %+v", d)
	}
	if d.CloseURL != "/archives?q=photo" {
		t.Fatalf("unexpected close url %q", d.CloseURL)
	}
	if len(d.Share) != 4 || !strings.Contains(d.Share[0].Href, url.QueryEscape("https://conatel.test/archives?id=b")) {
		t.Fatalf("unexpected share links %+v", d.Share)
	}
	if !strings.Contains(d.JSONLD, `"headline":"Photo réunion"`) {
		t.Fatalf("unexpected json-ld %s", d.JSONLD)
	}
	if view.Heading != "Résultats pour « photo »" {
		t.Fatalf("unexpected heading %q", view.Heading)
	}

	missing := BuildListView(ListInput{Resource: archives, State: success(archiveItems()), Query: url.Values{"id": {"zzz"}}, Bundle: testBundle(t), BasePath: "/archives"})
	if !missing.Missing || missing.Detail != nil {
		t.Fatalf("expected missing selection")
	}
}

func TestBuildListViewFailure(t *testing.T) {
	st := loader.State[[]cms.ContentItem]{
		Phase: loader.Failed,
		Err:   &cms.FetchFailure{Kind: cms.FailureServer, Status: 503, Resource: "archives"},
	}
	view := BuildListView(ListInput{Resource: archives, State: st, Query: url.Values{"type": {"pdf"}, "id": {"a"}}, Bundle: testBundle(t), BasePath: "/archives"})
	if !view.Section.Failed || view.Section.ErrorKey != "errors.server" || !view.Section.Retryable {
		t.Fatalf("unexpected section %+v", view.Section)
	}
	if view.Section.Status != 503 {
		t.Fatalf("expected status 503 on section, got %d", view.Section.Status)
	}
	if view.Section.RetryURL != "/archives?retry=1&type=pdf" {
		t.Fatalf("unexpected retry url %q", view.Section.RetryURL)
	}
	if len(view.Cards) != 0 || view.Detail != nil {
		t.Fatalf("expected no content on failure")
	}
}

func TestNewSectionFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Section
	}{
		{
			name: "server keeps status",
			err:  &cms.FetchFailure{Kind: cms.FailureServer, Status: 503},
			want: Section{Failed: true, ErrorKey: "errors.server", Status: 503, Retryable: true, RetryURL: "/x?retry=1"},
		},
		{
			name: "parse renders as server",
			err:  &cms.FetchFailure{Kind: cms.FailureParse, Status: 200, Err: errors.New("bad json")},
			want: Section{Failed: true, ErrorKey: "errors.server", Retryable: true, RetryURL: "/x?retry=1"},
		},
		{
			name: "network",
			err:  &cms.FetchFailure{Kind: cms.FailureNetwork, Err: errors.New("dial tcp: refused")},
			want: Section{Failed: true, ErrorKey: "errors.network", Retryable: true, RetryURL: "/x?retry=1"},
		},
		{
			name: "config is permanent",
			err:  &cms.FetchFailure{Kind: cms.FailureConfig, Err: errors.New("base url is empty")},
			want: Section{Failed: true, ErrorKey: "errors.config", RetryURL: "/x?retry=1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := loader.State[int]{Phase: loader.Failed, Err: tc.err}
			if diff := cmp.Diff(tc.want, NewSection(st, "/x?retry=1")); diff != "" {
				t.Fatalf("section mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildGalleryView(t *testing.T) {
	events := []cms.EventGallery{
		{ID: 4, Title: "Forum", Images: []string{"/u/1.jpg", "/u/2.jpg", "/u/3.jpg"}},
		{ID: 7, Title: "Atelier", Images: []string{"/u/9.jpg"}},
	}
	var videos []cms.VideoItem
	for i := 1; i <= 11; i++ {
		videos = append(videos, cms.VideoItem{ID: i, Title: "V", ExternalID: "yt" + string(rune('a'+i))})
	}
	in := GalleryInput{
		Events: loader.State[[]cms.EventGallery]{Phase: loader.Success, Data: events},
		Videos: loader.State[[]cms.VideoItem]{Phase: loader.Success, Data: videos},
		Query:  url.Values{"slide": {"-1"}, "vpage": {"2"}},
		Links:  links(),
	}
	v := BuildGalleryView(in)

	if !v.Events[0].Active || v.Slideshow == nil {
		t.Fatalf("expected first event selected by default")
	}
	if v.Slideshow.Index != 3 || v.Slideshow.Image != "https://cms.test/u/3.jpg" {
		t.Fatalf("expected wrap to last slide, got %+v", v.Slideshow)
	}
	if !strings.Contains(v.Slideshow.NextURL, "slide=0") {
		t.Fatalf("expected next to wrap to first, got %q", v.Slideshow.NextURL)
	}
	if len(v.Videos) != 2 || len(v.VideoPages) != 2 || v.NextURL != "" || v.PrevURL == "" {
		t.Fatalf("unexpected video page: %d videos, %d pages, prev=%q next=%q", len(v.Videos), len(v.VideoPages), v.PrevURL, v.NextURL)
	}
	if !strings.HasPrefix(v.Videos[0].Thumbnail, "https://img.youtube.com/vi/") {
		t.Fatalf("unexpected thumbnail %q", v.Videos[0].Thumbnail)
	}

	in.Query = url.Values{"event": {"7"}}
	if v := BuildGalleryView(in); v.Slideshow.Title != "Atelier" || v.Slideshow.Total != 1 {
		t.Fatalf("expected selected album, got %+v", v.Slideshow)
	}
}

func TestContactValidate(t *testing.T) {
	f := ParseContactForm(url.Values{"name": {"  "}, "email": {"pas-un-email"}, "message": {"Bonjou"}})
	errs := f.Validate()
	want := map[string]string{"name": "contact.errors.required", "email": "contact.errors.email"}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	ok := ParseContactForm(url.Values{"name": {"Jean"}, "email": {"jean@example.ht"}, "message": {"Bonjour"}})
	if errs := ok.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid form, got %v", errs)
	}
	if ref := NewReference(); !strings.HasPrefix(ref, "CT-") || len(ref) != 29 {
		t.Fatalf("unexpected reference %q", ref)
	}
}

func TestBuildSearchView(t *testing.T) {
	decisions := &cms.Resource{Name: "decisions", Search: []string{"title", "summary"}}
	sources := []SearchSource{
		{Resource: archives, BasePath: "/archives", TitleKey: "archives.title", State: success(archiveItems())},
		{Resource: decisions, BasePath: "/decisions", TitleKey: "decisions.title", State: loader.State[[]cms.ContentItem]{Phase: loader.Failed, Err: errors.New("boom")}},
	}
	v := BuildSearchView("arrete", sources, "fr", testBundle(t), links(), 5)
	if v.Total != 1 || len(v.Groups) != 2 {
		t.Fatalf("unexpected totals %d / %d groups", v.Total, len(v.Groups))
	}
	if v.Groups[0].Results[0].Item.Title != "Arrêté" {
		t.Fatalf("expected accent-folded hit, got %+v", v.Groups[0].Results)
	}
	if v.Groups[0].MoreURL != "/archives?q=arrete" {
		t.Fatalf("unexpected more url %q", v.Groups[0].MoreURL)
	}
	if !v.Groups[1].Section.Failed {
		t.Fatalf("expected failed decisions group")
	}
	if empty := BuildSearchView("  ", sources, "fr", testBundle(t), links(), 5); len(empty.Groups) != 0 {
		t.Fatalf("expected no groups for blank query")
	}
}

func TestBuildLangs(t *testing.T) {
	langs := BuildLangs("ht", []string{"fr", "ht"}, "/decisions", url.Values{"q": {"tarif"}, "hl": {"ht"}})
	if langs[0].Href != "/decisions?hl=fr&q=tarif" || langs[0].Active || !langs[1].Active {
		t.Fatalf("unexpected langs %+v", langs)
	}
}

func TestBuildAboutView(t *testing.T) {
	v := BuildAboutView([]cms.Leader{
		{Name: "Jean-Marie Buteau", Term: "2018 - 2021"},
		{Name: "Réginald Célestin", Term: "2007 - 2014", Image: "/static/img/rc.jpg"},
		{Name: "Madonna"},
	})
	want := []LeaderCard{
		{Name: "Jean-Marie Buteau", Term: "2018 - 2021", Initials: "JB"},
		{Name: "Réginald Célestin", Term: "2007 - 2014", Image: "/static/img/rc.jpg", Initials: "RC"},
		{Name: "Madonna", Initials: "M"},
	}
	if diff := cmp.Diff(want, v.FormerDGs); diff != "" {
		t.Fatalf("former directors mismatch (-want +got):\n%s", diff)
	}
}
