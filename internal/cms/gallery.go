package cms

import "net/url"

// EventGallery is a photo album. Images order is slide order.
type EventGallery struct {
	ID     int
	Title  string
	Images []string
}

// Len returns the number of slides.
func (e EventGallery) Len() int { return len(e.Images) }

// Slide returns the image at index i, wrapping in both directions. It
// returns "" for an empty gallery.
func (e EventGallery) Slide(i int) string {
	n := len(e.Images)
	if n == 0 {
		return ""
	}
	return e.Images[SlideIndex(i, n)]
}

// SlideIndex wraps i into [0, n).
func SlideIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// VideoItem is an externally hosted video.
type VideoItem struct {
	ID         int
	Title      string
	ExternalID string
}

// Thumbnail derives the preview image from the external id.
func (v VideoItem) Thumbnail() string {
	if v.ExternalID == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + url.PathEscape(v.ExternalID) + "/mqdefault.jpg"
}

// WatchURL links to the video page.
func (v VideoItem) WatchURL() string {
	if v.ExternalID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(v.ExternalID)
}

// EmbedURL is the player address used inside the video modal.
func (v VideoItem) EmbedURL() string {
	if v.ExternalID == "" {
		return ""
	}
	return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(v.ExternalID)
}

// NormalizeEvent maps a raw event record. Images come from the media fields.
func NormalizeEvent(res *Resource, raw Record) EventGallery {
	if res == nil {
		res = &Resource{}
	}
	media := res.Fields.Media
	if len(media) == 0 {
		media = Names{"images"}
	}
	return EventGallery{
		ID:     intValue(field(raw, Names{"id"})),
		Title:  orFallback(scalar(field(raw, titleNames(res))), res, "title"),
		Images: relationList(field(raw, media)),
	}
}

// NormalizeVideo maps a raw video record.
func NormalizeVideo(res *Resource, raw Record) VideoItem {
	if res == nil {
		res = &Resource{}
	}
	ext := res.Fields.ExternalID
	if len(ext) == 0 {
		ext = Names{"youtubeId"}
	}
	return VideoItem{
		ID:         intValue(field(raw, Names{"id"})),
		Title:      orFallback(scalar(field(raw, titleNames(res))), res, "title"),
		ExternalID: scalar(field(raw, ext)),
	}
}
