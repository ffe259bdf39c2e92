package handlers

import (
	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/i18n"
)

// ChantierCard is one programme section of the chantiers page.
type ChantierCard struct {
	Anchor      string
	Icon        string
	Title       string
	Description string
}

// ChantiersView is the chantiers page payload.
type ChantiersView struct {
	Items []ChantierCard
}

// BuildChantiersView localizes the programme list. Descriptions live under
// "<title key>_desc".
func BuildChantiersView(items []cms.Chantier, lang string, bundle *i18n.Bundle) ChantiersView {
	v := ChantiersView{Items: make([]ChantierCard, 0, len(items))}
	for _, c := range items {
		v.Items = append(v.Items, ChantierCard{
			Anchor:      c.Anchor,
			Icon:        c.Icon,
			Title:       bundle.T(lang, c.TitleKey),
			Description: bundle.T(lang, c.TitleKey+"_desc"),
		})
	}
	return v
}
