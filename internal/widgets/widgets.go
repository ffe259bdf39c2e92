// Package widgets implements the sidebar cards. Each card fetches and fails on
// its own; a broken card never hides the others or the page.
package widgets

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/loader"
)

// Widget is one self-contained sidebar card.
type Widget interface {
	Name() string
	Load(ctx context.Context, lang string) (any, error)
}

// Fetcher is the part of the CMS client the widgets need.
type Fetcher interface {
	FetchCollection(ctx context.Context, resource, locale string, q cms.Query) ([]cms.Record, error)
}

// LatestNews shows the newest articles.
type LatestNews struct {
	Client   Fetcher
	Resource *cms.Resource
	Limit    int
}

func (w LatestNews) Name() string { return "latest" }

func (w LatestNews) Load(ctx context.Context, lang string) (any, error) {
	if w.Client == nil || w.Resource == nil {
		return nil, errors.New("widgets: latest news is not configured")
	}
	limit := w.Limit
	if limit <= 0 {
		limit = 3
	}
	q := cms.Query{
		Populate: w.Resource.Populate,
		Sort:     []string{"date:desc"},
		Limit:    limit,
	}
	recs, err := w.Client.FetchCollection(ctx, w.Resource.Path, lang, q)
	if err != nil {
		return nil, err
	}
	items := cms.NormalizeAll(w.Resource, recs)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ChantierLink is one programme entry.
type ChantierLink struct {
	Title string
	Href  string
	Icon  string
}

// Chantiers lists the strategic programmes.
type Chantiers struct {
	Bundle *i18n.Bundle
	Items  []cms.Chantier
}

func (w Chantiers) Name() string { return "chantiers" }

func (w Chantiers) Load(_ context.Context, lang string) (any, error) {
	out := make([]ChantierLink, 0, len(w.Items))
	for _, c := range w.Items {
		out = append(out, ChantierLink{
			Title: w.Bundle.T(lang, c.TitleKey),
			Href:  "/chantiers#" + c.Anchor,
			Icon:  c.Icon,
		})
	}
	return out, nil
}

// Bar is one rendered data point, scaled against the largest in its set.
type Bar struct {
	Label   string
	Value   float64
	Display string
	Percent int
}

// Chart is a rendered stats dataset.
type Chart struct {
	Key   string
	Title string
	Kind  string
	Bars  []Bar
}

// Stats renders the static datasets.
type Stats struct {
	Bundle *i18n.Bundle
	Sets   []cms.StatSet
}

func (w Stats) Name() string { return "stats" }

func (w Stats) Load(_ context.Context, lang string) (any, error) {
	charts := make([]Chart, 0, len(w.Sets))
	for _, set := range w.Sets {
		var max, sum float64
		for _, p := range set.Points {
			max = math.Max(max, p.Value)
			sum += p.Value
		}
		chart := Chart{Key: set.Key, Title: w.Bundle.T(lang, set.TitleKey), Kind: set.Chart}
		for _, p := range set.Points {
			base := max
			if set.Chart == "share" {
				base = sum
			}
			pct := 0
			if base > 0 {
				pct = int(math.Round(p.Value / base * 100))
			}
			chart.Bars = append(chart.Bars, Bar{
				Label:   w.Bundle.T(lang, p.Label),
				Value:   p.Value,
				Display: formatValue(p.Value, set.Unit),
				Percent: pct,
			})
		}
		charts = append(charts, chart)
	}
	return charts, nil
}

func formatValue(v float64, unit string) string {
	switch unit {
	case "M":
		return strconv.FormatFloat(v/1e6, 'f', -1, 64) + "M"
	case "":
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + unit
	}
}

// Socials lists the outbound social profiles.
type Socials struct {
	Links []cms.SocialLink
}

func (w Socials) Name() string { return "socials" }

func (w Socials) Load(context.Context, string) (any, error) {
	out := make([]cms.SocialLink, 0, len(w.Links))
	for _, l := range w.Links {
		if strings.TrimSpace(l.URL) != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

// Card is the outcome of one widget for a page view.
type Card struct {
	Name  string
	State loader.State[any]
}

// Ready reports whether the card has data to show.
func (c Card) Ready() bool { return c.State.Phase == loader.Success && !c.State.Empty }

// Failed reports whether the card should show its error state.
func (c Card) Failed() bool { return c.State.Phase == loader.Failed }

// Data returns the loaded value.
func (c Card) Data() any { return c.State.Data }

// Sidebar loads a fixed set of widgets side by side.
type Sidebar struct {
	widgets []Widget
	logger  *zap.Logger
}

// NewSidebar keeps widgets in display order.
func NewSidebar(logger *zap.Logger, widgets ...Widget) *Sidebar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sidebar{widgets: widgets, logger: logger}
}

// Load runs every widget concurrently, each through its own loader, and
// returns the cards in display order once all have settled.
func (s *Sidebar) Load(ctx context.Context, lang string) []Card {
	cards := make([]Card, len(s.widgets))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range s.widgets {
		g.Go(func() error {
			l := loader.New(w.Load, loader.WithEmpty(isEmpty))
			st, _ := l.Load(gctx, lang)
			if st.Phase == loader.Failed {
				s.logger.Warn("widget failed",
					zap.String("widget", w.Name()),
					zap.String("locale", lang),
					zap.Error(st.Err),
				)
			}
			cards[i] = Card{Name: w.Name(), State: st}
			// Failures stay inside the card so siblings keep their context.
			return nil
		})
	}
	_ = g.Wait()
	return cards
}

// Find returns the card named name.
func Find(cards []Card, name string) (Card, bool) {
	for _, c := range cards {
		if c.Name == name {
			return c, true
		}
	}
	return Card{}, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []cms.ContentItem:
		return len(t) == 0
	case []ChantierLink:
		return len(t) == 0
	case []Chart:
		return len(t) == 0
	case []cms.SocialLink:
		return len(t) == 0
	default:
		return false
	}
}
