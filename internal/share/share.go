// Package share builds outbound share-intent links for a content item.
package share

import (
	"net/url"
	"strings"
)

// Target describes what is being shared.
type Target struct {
	Title string
	Text  string
	URL   string
}

// Link is one share destination.
type Link struct {
	Network string
	Label   string
	Icon    string
	Href    string
}

const (
	Facebook = "facebook"
	Twitter  = "twitter"
	WhatsApp = "whatsapp"
	Email    = "email"
)

// Links returns the four share destinations in display order.
func Links(t Target) []Link {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		text = t.Title
	}
	return []Link{
		{
			Network: Facebook,
			Label:   "Facebook",
			Icon:    "facebook",
			Href:    "https://www.facebook.com/sharer/sharer.php?u=" + escape(t.URL),
		},
		{
			Network: Twitter,
			Label:   "X",
			Icon:    "twitter-x",
			Href:    "https://twitter.com/intent/tweet?url=" + escape(t.URL) + "&text=" + escape(t.Title),
		},
		{
			Network: WhatsApp,
			Label:   "WhatsApp",
			Icon:    "whatsapp",
			Href:    "https://api.whatsapp.com/send?text=" + escape(joinNonEmpty(" ", t.Title, t.URL)),
		},
		{
			Network: Email,
			Label:   "Email",
			Icon:    "envelope",
			Href:    "mailto:?subject=" + escape(t.Title) + "&body=" + escape(joinNonEmpty("\n\n", text, t.URL)),
		},
	}
}

// escape matches encodeURIComponent closely enough for share intents:
// spaces become %20 rather than +.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
