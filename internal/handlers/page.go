package handlers

import (
	"net/url"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/nav"
	"conatel.gouv.ht/web/internal/seo"
	"conatel.gouv.ht/web/internal/widgets"
)

// PageData is the view model handed to the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Langs     []LangOption
	SiteName  string
	SEO       seo.Meta
	Analytics Analytics
	CSRFToken string

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	Header  HeaderView
	Sidebar []widgets.Card
	Socials []cms.SocialLink

	// Per-page payload, one of the *View types below.
	Content any
}

// HeaderView is the page title block with its load state.
type HeaderView struct {
	cms.PageHeader
	Section Section
}

// LangOption is one entry of the language switcher.
type LangOption struct {
	Code   string
	Label  string
	Href   string
	Active bool
}

var langLabels = map[string]string{
	"fr": "Français",
	"ht": "Kreyòl",
}

// BuildLangs lists supported languages with links that keep the current
// query and set hl.
func BuildLangs(current string, supported []string, path string, q url.Values) []LangOption {
	out := make([]LangOption, 0, len(supported))
	for _, code := range supported {
		v := url.Values{}
		for k, vals := range q {
			if k == "hl" || k == "retry" {
				continue
			}
			v[k] = append([]string(nil), vals...)
		}
		v.Set("hl", code)
		label := langLabels[code]
		if label == "" {
			label = code
		}
		out = append(out, LangOption{
			Code:   code,
			Label:  label,
			Href:   path + "?" + v.Encode(),
			Active: code == current,
		})
	}
	return out
}

// Alternates builds hreflang links for every supported language.
func Alternates(publicURL, path string, supported []string) []seo.Alternate {
	out := make([]seo.Alternate, 0, len(supported)+1)
	for _, code := range supported {
		out = append(out, seo.Alternate{Href: publicURL + path + "?hl=" + code, Hreflang: code})
	}
	if len(supported) > 0 {
		out = append(out, seo.Alternate{Href: publicURL + path, Hreflang: "x-default"})
	}
	return out
}
