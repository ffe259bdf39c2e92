package handlers

import (
	"net/url"
	"strings"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/listing"
	"conatel.gouv.ht/web/internal/loader"
)

// SearchSource is one resource searched by the global search page.
type SearchSource struct {
	Resource *cms.Resource
	BasePath string
	TitleKey string
	State    loader.State[[]cms.ContentItem]
}

// SearchGroup holds the hits of one resource.
type SearchGroup struct {
	Resource string
	Title    string
	Section  Section
	Results  []CardView
	Total    int
	MoreURL  string
}

// SearchView is the global search page payload.
type SearchView struct {
	Query  string
	Groups []SearchGroup
	Total  int
}

// BuildSearchView matches q against every source and keeps the newest
// perGroup hits of each. An empty query yields no groups.
func BuildSearchView(q string, sources []SearchSource, lang string, bundle *i18n.Bundle, links Links, perGroup int) SearchView {
	q = strings.TrimSpace(q)
	v := SearchView{Query: q}
	if q == "" {
		return v
	}
	retry := RetryURL("/recherche", url.Values{"q": {q}})
	for _, src := range sources {
		g := SearchGroup{
			Title:   bundle.T(lang, src.TitleKey),
			Section: NewSection(src.State, retry),
			MoreURL: src.BasePath + "?" + url.Values{"q": {q}}.Encode(),
		}
		if src.Resource != nil {
			g.Resource = src.Resource.Name
		}
		var fields []string
		if src.Resource != nil {
			fields = src.Resource.Search
		}
		hits := listing.SortByDateDesc(listing.Search(src.State.Data, q, fields))
		g.Total = len(hits)
		if perGroup > 0 && len(hits) > perGroup {
			hits = hits[:perGroup]
		}
		view := ListView{Resource: g.Resource, Filter: listing.FilterState{Search: q, Type: listing.TypeAll}, Slice: listing.PageSlice{Page: 1}}
		in := ListInput{Resource: src.Resource, Lang: lang, Bundle: bundle, BasePath: src.BasePath, Links: links}
		for _, it := range hits {
			g.Results = append(g.Results, buildCard(in, view, it, false))
		}
		v.Total += g.Total
		v.Groups = append(v.Groups, g)
	}
	return v
}
