package seo

// OpenGraph carries the og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// Meta is the head block of a page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	TwitterCard string
	Alternates  []Alternate
	JSONLD      []string
}

// ogLocales maps site languages to og:locale values.
var ogLocales = map[string]string{
	"fr": "fr_HT",
	"ht": "ht_HT",
}

// OGLocale returns the og:locale for lang.
func OGLocale(lang string) string {
	if v, ok := ogLocales[lang]; ok {
		return v
	}
	return "fr_HT"
}
