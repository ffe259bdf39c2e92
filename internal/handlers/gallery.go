package handlers

import (
	"net/url"
	"strconv"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/listing"
	"conatel.gouv.ht/web/internal/loader"
)

// DefaultVideoPageSize is the number of videos per gallery page.
const DefaultVideoPageSize = 9

// GalleryInput carries both gallery sections.
type GalleryInput struct {
	Events        loader.State[[]cms.EventGallery]
	Videos        loader.State[[]cms.VideoItem]
	Query         url.Values
	BasePath      string
	VideoPageSize int
	Links         Links
}

// EventTab selects one album.
type EventTab struct {
	ID     int
	Title  string
	URL    string
	Active bool
	Cover  string
}

// SlideshowView is the open album.
type SlideshowView struct {
	Title   string
	Image   string
	Index   int
	Total   int
	PrevURL string
	NextURL string
}

// VideoCard is one video thumbnail.
type VideoCard struct {
	Item      cms.VideoItem
	Thumbnail string
	WatchURL  string
	PlayURL   string
}

// GalleryView is the gallery page payload.
type GalleryView struct {
	EventsSection Section
	Events        []EventTab
	Slideshow     *SlideshowView

	VideosSection Section
	Videos        []VideoCard
	Playing       *VideoCard
	VideoPages    []PageLink
	PrevURL       string
	NextURL       string
}

// BuildGalleryView selects the album from ?event= (first by default), the
// slide from ?slide= (wrapping), and the video page from ?vpage=.
func BuildGalleryView(in GalleryInput) GalleryView {
	base := in.BasePath
	if base == "" {
		base = "/galerie"
	}
	retry := RetryURL(base, in.Query)
	v := GalleryView{
		EventsSection: NewSection(in.Events, retry),
		VideosSection: NewSection(in.Videos, retry),
	}

	events := in.Events.Data
	selected := -1
	if len(events) > 0 {
		selected = 0
		if id, err := strconv.Atoi(in.Query.Get("event")); err == nil {
			for i, e := range events {
				if e.ID == id {
					selected = i
				}
			}
		}
	}
	for i, e := range events {
		v.Events = append(v.Events, EventTab{
			ID:     e.ID,
			Title:  e.Title,
			URL:    galleryURL(base, in.Query, map[string]string{"event": strconv.Itoa(e.ID), "slide": ""}),
			Active: i == selected,
			Cover:  in.Links.media(e.Slide(0)),
		})
	}
	if selected >= 0 && events[selected].Len() > 0 {
		e := events[selected]
		slide, _ := strconv.Atoi(in.Query.Get("slide"))
		idx := cms.SlideIndex(slide, e.Len())
		eventID := strconv.Itoa(e.ID)
		v.Slideshow = &SlideshowView{
			Title:   e.Title,
			Image:   in.Links.media(e.Slide(idx)),
			Index:   idx + 1,
			Total:   e.Len(),
			PrevURL: galleryURL(base, in.Query, map[string]string{"event": eventID, "slide": strconv.Itoa(cms.SlideIndex(idx-1, e.Len()))}),
			NextURL: galleryURL(base, in.Query, map[string]string{"event": eventID, "slide": strconv.Itoa(cms.SlideIndex(idx+1, e.Len()))}),
		}
	}

	size := in.VideoPageSize
	if size <= 0 {
		size = DefaultVideoPageSize
	}
	videos := in.Videos.Data
	total := listing.TotalPages(len(videos), size)
	page := listing.ClampPage(PageParam(in.Query, "vpage"), total)
	start := (page - 1) * size
	end := start + size
	if end > len(videos) {
		end = len(videos)
	}
	for _, vid := range videos[min(start, len(videos)):end] {
		v.Videos = append(v.Videos, videoCard(base, in.Query, vid))
	}
	if key := in.Query.Get("video"); key != "" {
		for _, vid := range videos {
			if vid.ExternalID == key || strconv.Itoa(vid.ID) == key {
				card := videoCard(base, in.Query, vid)
				v.Playing = &card
				break
			}
		}
	}
	for n := 1; n <= total; n++ {
		v.VideoPages = append(v.VideoPages, PageLink{Number: n, URL: galleryURL(base, in.Query, map[string]string{"vpage": pageValue(n), "video": ""}), Active: n == page})
	}
	if page > 1 {
		v.PrevURL = galleryURL(base, in.Query, map[string]string{"vpage": pageValue(page - 1), "video": ""})
	}
	if page < total {
		v.NextURL = galleryURL(base, in.Query, map[string]string{"vpage": pageValue(page + 1), "video": ""})
	}
	return v
}

func videoCard(base string, q url.Values, vid cms.VideoItem) VideoCard {
	return VideoCard{
		Item:      vid,
		Thumbnail: vid.Thumbnail(),
		WatchURL:  vid.WatchURL(),
		PlayURL:   galleryURL(base, q, map[string]string{"video": vid.ExternalID}),
	}
}

func pageValue(n int) string {
	if n <= 1 {
		return ""
	}
	return strconv.Itoa(n)
}

// galleryURL rewrites q with set; empty values remove the key.
func galleryURL(base string, q url.Values, set map[string]string) string {
	v := url.Values{}
	for k, vals := range q {
		if k == "retry" {
			continue
		}
		v[k] = append([]string(nil), vals...)
	}
	for k, val := range set {
		if val == "" {
			v.Del(k)
			continue
		}
		v.Set(k, val)
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}
