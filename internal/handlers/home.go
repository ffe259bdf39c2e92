package handlers

import (
	"net/url"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/i18n"
	"conatel.gouv.ht/web/internal/loader"
	"conatel.gouv.ht/web/internal/widgets"
)

// SlideView is one carousel slide.
type SlideView struct {
	Title    string
	Subtitle string
	Image    string
	Active   bool
}

// HomeView is the landing page payload.
type HomeView struct {
	Slides        []SlideView
	SlidesSection Section
	News          []CardView
	NewsSection   Section
	Chantiers     []widgets.ChantierLink
	Stats         []widgets.Chart
}

// HomeInput carries the independently loaded home sections.
type HomeInput struct {
	Slides    loader.State[[]cms.ContentItem]
	News      loader.State[[]cms.ContentItem]
	Articles  *cms.Resource
	Chantiers []widgets.ChantierLink
	Stats     []widgets.Chart
	Query     url.Values
	Lang      string
	Bundle    *i18n.Bundle
	Links     Links
}

// BuildHomeView assembles the carousel and the latest news cards. News cards
// link to the news page modal.
func BuildHomeView(in HomeInput) HomeView {
	retry := RetryURL("/", in.Query)
	v := HomeView{
		SlidesSection: NewSection(in.Slides, retry),
		NewsSection:   NewSection(in.News, retry),
		Chantiers:     in.Chantiers,
		Stats:         in.Stats,
	}
	for i, s := range in.Slides.Data {
		v.Slides = append(v.Slides, SlideView{
			Title:    s.Title,
			Subtitle: s.Summary,
			Image:    in.Links.media(s.Media),
			Active:   i == 0,
		})
	}
	news := BuildListView(ListInput{
		Resource: in.Articles,
		State:    in.News,
		Lang:     in.Lang,
		Bundle:   in.Bundle,
		BasePath: "/actualites",
		TitleKey: "news.title",
		Links:    in.Links,
	})
	v.News = news.Cards
	return v
}
