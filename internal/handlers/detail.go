package handlers

import (
	"html/template"
	"net/url"
	"strings"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/format"
	"conatel.gouv.ht/web/internal/richtext"
	"conatel.gouv.ht/web/internal/seo"
	"conatel.gouv.ht/web/internal/share"
)

// Links resolves media and page addresses for view models.
type Links struct {
	// Media turns an upload reference into an absolute URL.
	Media func(ref string) string
	// PublicURL is the absolute site root, without trailing slash.
	PublicURL string
	SiteName  string
}

func (l Links) media(ref string) string {
	if ref == "" {
		return ""
	}
	if l.Media == nil {
		return ref
	}
	return l.Media(ref)
}

// DetailView is the modal content for one selected item.
type DetailView struct {
	Item        cms.ContentItem
	Date        string
	Body        template.HTML
	Media       string
	FileURL     string
	DownloadURL string
	IsImage     bool
	Share       []share.Link
	CloseURL    string
	JSONLD      string
}

var imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true}

// IsImageExt reports whether ext names an image format.
func IsImageExt(ext string) bool { return imageExts[strings.ToLower(ext)] }

// DownloadPath is the proxy route for an item's attachment.
func DownloadPath(resource string, item cms.ContentItem) string {
	return "/" + url.PathEscape(resource) + "/" + url.PathEscape(item.Key()) + "/download"
}

// BuildDetail prepares the modal for item. basePath/q describe the list page
// the modal sits on; closing it keeps the filters.
func BuildDetail(item cms.ContentItem, lang, basePath string, q url.Values, links Links) *DetailView {
	pageURL := links.PublicURL + basePath + "?id=" + url.QueryEscape(item.Key())
	d := &DetailView{
		Item:     item,
		Date:     format.ItemDate(item, lang),
		Body:     richtext.Render(item.Body),
		Media:    links.media(item.Media),
		IsImage:  IsImageExt(item.AttachmentExt),
		CloseURL: closeURL(basePath, q),
	}
	if d.Body == "" && item.Summary != "" {
		d.Body = richtext.Render(item.Summary)
	}
	if item.Attachment != "" {
		d.FileURL = links.media(item.Attachment)
		d.DownloadURL = DownloadPath(item.Resource, item)
	}
	d.Share = share.Links(share.Target{
		Title: item.Title,
		Text:  richtext.Excerpt(firstNonEmpty(item.Summary, item.Body), 160),
		URL:   pageURL,
	})
	published := ""
	if t, ok := item.Time(); ok {
		published = t.Format("2006-01-02")
	}
	d.JSONLD = seo.JSON(seo.Article(item.Title, pageURL, d.Media, links.SiteName, published, lang))
	return d
}

func closeURL(basePath string, q url.Values) string {
	v := url.Values{}
	for k, vals := range q {
		if k == "id" || k == "retry" {
			continue
		}
		v[k] = vals
	}
	if len(v) == 0 {
		return basePath
	}
	return basePath + "?" + v.Encode()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
