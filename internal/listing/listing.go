// Package listing searches, filters, sorts and paginates normalized CMS items.
// Every function is pure and returns a new slice.
package listing

import (
	"sort"
	"strings"

	"conatel.gouv.ht/web/internal/cms"
)

// TypeAll disables the type filter.
const TypeAll = "all"

// Search keeps items whose title or one of fields contains text, ignoring
// case and accents. Empty text is the identity.
func Search(items []cms.ContentItem, text string, fields []string) []cms.ContentItem {
	needle := Fold(text)
	if needle == "" {
		return clone(items)
	}
	fields = withTitle(fields)
	out := make([]cms.ContentItem, 0, len(items))
	for _, it := range items {
		for _, f := range fields {
			if strings.Contains(Fold(fieldValue(it, f)), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func withTitle(fields []string) []string {
	for _, f := range fields {
		if f == "title" {
			return fields
		}
	}
	return append([]string{"title"}, fields...)
}

func fieldValue(it cms.ContentItem, field string) string {
	switch field {
	case "title":
		return it.Title
	case "summary", "description":
		return it.Summary
	case "date":
		return it.Date
	case "body":
		return it.Body
	default:
		return ""
	}
}

// FilterByType keeps items of the given type. A category name matches any of
// its extensions; anything else matches the attachment extension exactly.
// "all" and "" are the identity.
func FilterByType(items []cms.ContentItem, typ string, categories []cms.Category) []cms.ContentItem {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || typ == TypeAll {
		return clone(items)
	}
	accept := map[string]struct{}{typ: {}}
	for _, c := range categories {
		if c.Name == typ {
			accept = make(map[string]struct{}, len(c.Extensions))
			for _, ext := range c.Extensions {
				accept[ext] = struct{}{}
			}
			break
		}
	}
	out := make([]cms.ContentItem, 0, len(items))
	for _, it := range items {
		if _, ok := accept[it.AttachmentExt]; ok {
			out = append(out, it)
		}
	}
	return out
}

// FilterByMonth keeps items whose date starts with month ("YYYY-MM").
// Empty month is the identity.
func FilterByMonth(items []cms.ContentItem, month string) []cms.ContentItem {
	month = strings.TrimSpace(month)
	if month == "" {
		return clone(items)
	}
	out := make([]cms.ContentItem, 0, len(items))
	for _, it := range items {
		if strings.HasPrefix(strings.TrimSpace(it.Date), month) {
			out = append(out, it)
		}
	}
	return out
}

// SortByDateDesc orders items newest first. Items without a parseable date
// sort after all dated ones; ties keep their input order.
func SortByDateDesc(items []cms.ContentItem) []cms.ContentItem {
	out := clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		ti, oki := out[i].Time()
		tj, okj := out[j].Time()
		switch {
		case oki && okj:
			return ti.After(tj)
		case oki:
			return true
		default:
			return false
		}
	})
	return out
}

// TotalPages is ceil(n/size), zero for an empty list.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage moves page into [1, max(1, total)].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the 1-indexed page of items. Out of range pages are empty.
func Paginate(items []cms.ContentItem, page, size int) []cms.ContentItem {
	if size <= 0 || page < 1 {
		return []cms.ContentItem{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []cms.ContentItem{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return clone(items[start:end])
}

// Months lists the distinct "YYYY-MM" values present in items, newest first.
func Months(items []cms.ContentItem) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		t, ok := it.Time()
		if !ok {
			continue
		}
		m := t.Format("2006-01")
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func clone(items []cms.ContentItem) []cms.ContentItem {
	out := make([]cms.ContentItem, len(items))
	copy(out, items)
	return out
}
