// Package format renders dates and numbers the way each site language writes them.
package format

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"conatel.gouv.ht/web/internal/cms"
)

var monthNames = map[string][12]string{
	"fr": {"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	"ht": {"janvye", "fevriye", "mas", "avril", "me", "jen", "jiyè", "out", "septanm", "oktòb", "novanm", "desanm"},
}

// FmtDate formats t as "2 mars 2024" using lang's month names. Unknown
// languages use French.
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Day()) + " " + monthName(t.Month(), lang) + " " + strconv.Itoa(t.Year())
}

// FmtMonth formats a "YYYY-MM" filter value as "mars 2024".
func FmtMonth(ym, lang string) string {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return ym
	}
	return monthName(t.Month(), lang) + " " + strconv.Itoa(t.Year())
}

// ItemDate renders the item's date, or the raw value when it does not parse
// (fallback placeholders are shown as-is).
func ItemDate(item cms.ContentItem, lang string) string {
	if t, ok := item.Time(); ok {
		return FmtDate(t, lang)
	}
	return item.Date
}

func monthName(m time.Month, lang string) string {
	names, ok := monthNames[strings.ToLower(lang)]
	if !ok {
		names = monthNames["fr"]
	}
	return names[m-1]
}

// FmtNumber groups digits the French way (non-breaking thin separators).
func FmtNumber(n float64, lang string) string {
	tag := language.French
	if strings.EqualFold(lang, "ht") {
		tag = language.MustParse("ht")
	}
	p := message.NewPrinter(tag)
	if n == float64(int64(n)) {
		return p.Sprintf("%d", int64(n))
	}
	return p.Sprintf("%.2f", n)
}
