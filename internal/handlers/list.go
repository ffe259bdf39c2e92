package handlers

import (
	"net/url"
	"strconv"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/format"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/listing"
	"conatel.gouv.ht/web/internal/loader"
	"conatel.gouv.ht/web/internal/richtext"
)

const (
	excerptLength = 180
	pageWindow    = 5
)

// ListInput is everything BuildListView needs for one list page.
type ListInput struct {
	Resource *cms.Resource
	State    loader.State[[]cms.ContentItem]
	Query    url.Values
	Lang     string
	Bundle   *i18n.Bundle
	BasePath string
	// TitleKey names the unfiltered heading, e.g. "decisions.list_title".
	TitleKey string
	Links    Links
}

// ListView is a filtered, paginated list with an optional open item.
type ListView struct {
	Resource string
	BasePath string
	Heading  string
	Section  Section

	Filter listing.FilterState
	Slice  listing.PageSlice
	Cards  []CardView

	Types  []Option
	Months []Option

	Pages   []PageLink
	PrevURL string
	NextURL string

	Detail *DetailView
	// Missing is set when ?id= names an item that is not in the list.
	Missing bool
}

// CardView is one entry of a list.
type CardView struct {
	Item        cms.ContentItem
	Date        string
	Excerpt     string
	Media       string
	Ext         string
	DetailURL   string
	OpenURL     string
	DownloadURL string
	IsImage     bool
}

// Option is a select entry.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// PageLink is one numbered pagination link.
type PageLink struct {
	Number int
	URL    string
	Active bool
}

// BuildListView applies the query to the loaded items: search, type and month
// filters, date sort, then the requested page.
func BuildListView(in ListInput) ListView {
	filter, page := listing.FromQuery(in.Query)
	view := ListView{
		BasePath: in.BasePath,
		Section:  NewSection(in.State, RetryURL(in.BasePath, in.Query)),
		Filter:   filter,
	}
	if in.Resource != nil {
		view.Resource = in.Resource.Name
	}

	items := in.State.Data
	p := listing.NewPresenter(in.Resource)
	p.SetItems(items)
	p.SetFilter(filter)
	p.SetPage(page)
	view.Filter = p.Filter()
	view.Slice = p.Slice()
	view.Heading = heading(in, view.Filter)

	hasCategories := in.Resource != nil && len(in.Resource.Categories) > 0
	for _, it := range view.Slice.Items {
		view.Cards = append(view.Cards, buildCard(in, view, it, hasCategories))
	}

	if hasCategories {
		view.Types = typeOptions(in, view.Filter.Type)
		view.Months = monthOptions(items, in.Lang, view.Filter.Month)
	}

	for _, n := range view.Slice.Pages(pageWindow) {
		view.Pages = append(view.Pages, PageLink{Number: n, URL: pageURL(in.BasePath, view.Filter, n), Active: n == view.Slice.Page})
	}
	if view.Slice.HasPrev() {
		view.PrevURL = pageURL(in.BasePath, view.Filter, view.Slice.Prev())
	}
	if view.Slice.HasNext() {
		view.NextURL = pageURL(in.BasePath, view.Filter, view.Slice.Next())
	}

	if key := in.Query.Get("id"); key != "" && in.State.Phase == loader.Success {
		if it, ok := findItem(items, key); ok {
			view.Detail = BuildDetail(it, in.Lang, in.BasePath, in.Query, in.Links)
		} else {
			view.Missing = true
		}
	}
	return view
}

func buildCard(in ListInput, view ListView, it cms.ContentItem, preview bool) CardView {
	q := view.Filter.Query(view.Slice.Page)
	q.Set("id", it.Key())
	c := CardView{
		Item:      it,
		Date:      format.ItemDate(it, in.Lang),
		Excerpt:   richtext.Excerpt(it.Summary, excerptLength),
		Media:     in.Links.media(it.Media),
		Ext:       it.AttachmentExt,
		DetailURL: in.BasePath + "?" + q.Encode(),
		IsImage:   IsImageExt(it.AttachmentExt),
	}
	c.OpenURL = c.DetailURL
	if it.Attachment != "" {
		c.DownloadURL = DownloadPath(view.Resource, it)
		// Archive images open a preview; other files open directly.
		if preview && !c.IsImage {
			c.OpenURL = in.Links.media(it.Attachment)
		}
	}
	return c
}

func heading(in ListInput, f listing.FilterState) string {
	b := in.Bundle
	switch {
	case f.Search != "":
		return b.Tf(in.Lang, "list.heading.search", f.Search)
	case f.Month != "":
		return b.Tf(in.Lang, "list.heading.month", format.FmtMonth(f.Month, in.Lang))
	case f.Type != "" && f.Type != listing.TypeAll:
		return b.Tf(in.Lang, "list.heading.type", b.T(in.Lang, "types."+f.Type))
	default:
		return b.T(in.Lang, in.TitleKey)
	}
}

func typeOptions(in ListInput, selected string) []Option {
	if selected == "" {
		selected = listing.TypeAll
	}
	opts := []Option{{Value: listing.TypeAll, Label: in.Bundle.T(in.Lang, "types.all"), Selected: selected == listing.TypeAll}}
	for _, c := range in.Resource.Categories {
		opts = append(opts, Option{Value: c.Name, Label: in.Bundle.T(in.Lang, "types."+c.Name), Selected: selected == c.Name})
	}
	return opts
}

func monthOptions(items []cms.ContentItem, lang, selected string) []Option {
	months := listing.Months(items)
	opts := make([]Option, 0, len(months))
	for _, m := range months {
		opts = append(opts, Option{Value: m, Label: format.FmtMonth(m, lang), Selected: m == selected})
	}
	return opts
}

func pageURL(basePath string, f listing.FilterState, page int) string {
	q := f.Query(page)
	if len(q) == 0 {
		return basePath
	}
	return basePath + "?" + q.Encode()
}

func findItem(items []cms.ContentItem, key string) (cms.ContentItem, bool) {
	for _, it := range items {
		if it.Matches(key) {
			return it, true
		}
	}
	return cms.ContentItem{}, false
}

// PageParam reads a 1-based page number, defaulting to 1.
func PageParam(q url.Values, name string) int {
	n, err := strconv.Atoi(q.Get(name))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
