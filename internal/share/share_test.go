package share

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinksBuildsFourIntents(t *testing.T) {
	links := Links(Target{
		Title: "Décision n° 12",
		Text:  "Résumé court",
		URL:   "https://conatel.gouv.ht/decisions?id=abc",
	})
	require.Len(t, links, 4)

	assert.Equal(t, Facebook, links[0].Network)
	assert.Equal(t, "https://www.facebook.com/sharer/sharer.php?u=https%3A%2F%2Fconatel.gouv.ht%2Fdecisions%3Fid%3Dabc", links[0].Href)

	assert.True(t, strings.HasPrefix(links[1].Href, "https://twitter.com/intent/tweet?url="))
	assert.Contains(t, links[1].Href, "&text=D%C3%A9cision%20n%C2%B0%2012")

	assert.True(t, strings.HasPrefix(links[2].Href, "https://api.whatsapp.com/send?text="))
	assert.True(t, strings.HasPrefix(links[3].Href, "mailto:?subject="))
}

func TestLinksEncodeSpacesAsPercent20(t *testing.T) {
	for _, l := range Links(Target{Title: "a b", URL: "https://x.ht/a b"}) {
		assert.NotContains(t, l.Href, "+", l.Network)
	}
}

func TestMailBodyFallsBackToTitle(t *testing.T) {
	links := Links(Target{Title: "Avis", URL: "https://x.ht"})
	u, err := url.Parse(links[3].Href)
	require.NoError(t, err)
	assert.Equal(t, "Avis\n\nhttps://x.ht", u.Query().Get("body"))
	assert.Equal(t, "Avis", u.Query().Get("subject"))
}
