package cms

import (
	"encoding/json"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"conatel.gouv.ht/web/internal/richtext"
)

// ContentItem is the canonical shape of every listable record. Empty strings
// stand for absent attachment and media.
type ContentItem struct {
	ID            int
	DocumentID    string
	Title         string
	Date          string
	Summary       string
	Body          string
	Attachment    string
	AttachmentExt string
	Media         string
	Resource      string
}

// Key identifies the item across locale variants when the CMS provides a
// document id, else falls back to the numeric id.
func (c ContentItem) Key() string {
	if c.DocumentID != "" {
		return c.DocumentID
	}
	return strconv.Itoa(c.ID)
}

// Matches reports whether key selects this item, by Key or numeric id.
func (c ContentItem) Matches(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return key == c.Key() || key == strconv.Itoa(c.ID)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"02/01/2006",
}

// Time parses Date. The boolean is false for missing or malformed dates.
func (c ContentItem) Time() (time.Time, bool) {
	s := strings.TrimSpace(c.Date)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PageHeader is the title block of a page, from a single-type document.
type PageHeader struct {
	Title       string
	Description string
}

// Normalize maps one raw record onto ContentItem using res. It never fails:
// missing fields take the resource fallbacks.
func Normalize(res *Resource, raw Record) ContentItem {
	if res == nil {
		res = &Resource{}
	}
	src := raw
	if res.LocalizationsFallback && scalar(field(raw, titleNames(res))) == "" {
		if alt := firstLocalization(raw); alt != nil {
			src = alt
		}
	}

	item := ContentItem{
		ID:         intValue(field(raw, Names{"id"})),
		DocumentID: scalar(field(raw, Names{"documentId"})),
		Resource:   res.Name,
	}
	item.Title = orFallback(scalar(field(src, titleNames(res))), res, "title")
	item.Date = orFallback(scalar(field(src, dateNames(res))), res, "date")
	item.Summary = orFallback(scalar(field(src, res.Fields.Summary)), res, "summary")
	item.Body = orFallback(scalar(field(src, res.Fields.Body)), res, "body")

	if url, ext := relation(field(src, res.Fields.Attachment)); url != "" {
		item.Attachment = url
		item.AttachmentExt = extension(ext, url, res.FallbackExt)
	}
	item.Media, _ = relation(field(src, res.Fields.Media))
	return item
}

// NormalizeAll maps every record of a collection.
func NormalizeAll(res *Resource, raws []Record) []ContentItem {
	out := make([]ContentItem, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(res, raw))
	}
	return out
}

// NormalizeHeader extracts a page header, keeping the given defaults for
// blank fields.
func NormalizeHeader(raw Record, defaults PageHeader) PageHeader {
	h := PageHeader{
		Title:       scalar(field(raw, Names{"title"})),
		Description: scalar(field(raw, Names{"description", "subtitle"})),
	}
	if h.Title == "" {
		h.Title = defaults.Title
	}
	if h.Description == "" {
		h.Description = defaults.Description
	}
	return h
}

func titleNames(res *Resource) Names {
	if len(res.Fields.Title) > 0 {
		return res.Fields.Title
	}
	return Names{"title"}
}

func dateNames(res *Resource) Names {
	if len(res.Fields.Date) > 0 {
		return res.Fields.Date
	}
	return Names{"date"}
}

func orFallback(v string, res *Resource, name string) string {
	if v != "" {
		return v
	}
	return res.Fallback(name)
}

// field returns the first present value among names, looking at the record
// itself before its `attributes` wrapper.
func field(raw Record, names Names) any {
	if raw == nil {
		return nil
	}
	attrs := asMap(raw["attributes"])
	for _, name := range names {
		if v, ok := raw[name]; ok && v != nil {
			return v
		}
		if attrs != nil {
			if v, ok := attrs[name]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

// scalar renders a scalar or rich-text value as trimmed text.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if md, ok := richtext.BlocksToMarkdown(t); ok {
			return strings.TrimSpace(md)
		}
		return ""
	default:
		return ""
	}
}

func intValue(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		n, _ := t.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

// relation resolves the url (and declared ext) of a file or image relation in
// any of the shapes the CMS emits: a plain string, `{url}`, `{data: {url}}`,
// `{data: {attributes: {url}}}`, or a list of those (first wins).
func relation(v any) (url, ext string) {
	for depth := 0; depth < 6 && v != nil; depth++ {
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t), ""
		case []any:
			if len(t) == 0 {
				return "", ""
			}
			v = t[0]
		case map[string]any:
			if u, ok := t["url"].(string); ok && strings.TrimSpace(u) != "" {
				e, _ := t["ext"].(string)
				return strings.TrimSpace(u), e
			}
			switch {
			case t["data"] != nil:
				v = t["data"]
			case t["attributes"] != nil:
				v = t["attributes"]
			default:
				return "", ""
			}
		case Record:
			v = map[string]any(t)
		default:
			return "", ""
		}
	}
	return "", ""
}

// relationList is relation for multi-valued media fields.
func relationList(v any) []string {
	if m := asMap(v); m != nil && m["data"] != nil {
		v = m["data"]
	}
	list, ok := v.([]any)
	if !ok {
		if u, _ := relation(v); u != "" {
			return []string{u}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		if u, _ := relation(entry); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func extension(declared, url, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(declared)), ".")
	if ext == "" {
		p := url
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		ext = strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	}
	if ext == "" {
		ext = fallback
	}
	return ext
}

// firstLocalization returns the first localized variant carried by raw, as
// `localizations: [...]` or `localizations: {data: [...]}`.
func firstLocalization(raw Record) Record {
	v := field(raw, Names{"localizations"})
	if m := asMap(v); m != nil {
		v = m["data"]
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	m := asMap(list[0])
	if m == nil {
		return nil
	}
	return Record(m)
}

func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Record:
		return t
	default:
		return nil
	}
}
