package listing

import (
	"net/url"
	"strconv"
	"strings"

	"conatel.gouv.ht/web/internal/cms"
)

// FilterState is the user's current list input.
type FilterState struct {
	Search string
	Type   string
	Month  string
}

// IsZero reports whether no filter is applied.
func (f FilterState) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && (f.Type == "" || f.Type == TypeAll) && f.Month == ""
}

// Query encodes the state for links, keeping page when > 1.
func (f FilterState) Query(page int) url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("q", s)
	}
	if f.Type != "" && f.Type != TypeAll {
		v.Set("type", f.Type)
	}
	if f.Month != "" {
		v.Set("month", f.Month)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return v
}

// PageSlice is one rendered page of a filtered list.
type PageSlice struct {
	Items      []cms.ContentItem
	Page       int
	PageSize   int
	TotalPages int
	Total      int
}

// Empty reports whether the filtered list has no items.
func (p PageSlice) Empty() bool { return p.Total == 0 }

func (p PageSlice) HasPrev() bool { return p.Page > 1 }
func (p PageSlice) HasNext() bool { return p.Page < p.TotalPages }
func (p PageSlice) Prev() int     { return p.Page - 1 }
func (p PageSlice) Next() int     { return p.Page + 1 }

// Pages returns the page numbers to show, at most window wide around Page.
func (p PageSlice) Pages(window int) []int {
	if p.TotalPages <= 0 {
		return nil
	}
	if window <= 0 || window > p.TotalPages {
		window = p.TotalPages
	}
	start := p.Page - window/2
	if start < 1 {
		start = 1
	}
	if start+window-1 > p.TotalPages {
		start = p.TotalPages - window + 1
	}
	out := make([]int, 0, window)
	for i := start; i < start+window; i++ {
		out = append(out, i)
	}
	return out
}

// Presenter owns the filter and page state of one list view. Changing a
// filter resets the page to 1 and new items reset everything.
type Presenter struct {
	fields     []string
	categories []cms.Category
	pageSize   int

	items  []cms.ContentItem
	filter FilterState
	page   int
}

// NewPresenter configures a presenter from a resource definition.
func NewPresenter(res *cms.Resource) *Presenter {
	p := &Presenter{page: 1, pageSize: 10}
	if res != nil {
		p.fields = res.Search
		p.categories = res.Categories
		if res.PageSize > 0 {
			p.pageSize = res.PageSize
		}
	}
	return p
}

// WithPageSize overrides the page size.
func (p *Presenter) WithPageSize(size int) *Presenter {
	if size > 0 {
		p.pageSize = size
	}
	return p
}

// SetItems replaces the list and resets filter and page.
func (p *Presenter) SetItems(items []cms.ContentItem) {
	p.items = clone(items)
	p.Reset()
}

// Reset restores the initial filter state and page 1.
func (p *Presenter) Reset() {
	p.filter = FilterState{Type: TypeAll}
	p.page = 1
}

func (p *Presenter) SetSearch(text string) {
	if text != p.filter.Search {
		p.filter.Search = text
		p.page = 1
	}
}

func (p *Presenter) SetType(typ string) {
	if typ == "" {
		typ = TypeAll
	}
	if typ != p.filter.Type {
		p.filter.Type = typ
		p.page = 1
	}
}

func (p *Presenter) SetMonth(month string) {
	if month != p.filter.Month {
		p.filter.Month = month
		p.page = 1
	}
}

// SetFilter applies all three filter inputs at once.
func (p *Presenter) SetFilter(f FilterState) {
	p.SetSearch(f.Search)
	p.SetType(f.Type)
	p.SetMonth(f.Month)
}

// SetPage selects a page; Slice clamps it to the available range.
func (p *Presenter) SetPage(page int) {
	p.page = page
}

// Filter returns the current filter state.
func (p *Presenter) Filter() FilterState { return p.filter }

// Filtered applies search, type and month filters then sorts newest first.
func (p *Presenter) Filtered() []cms.ContentItem {
	out := Search(p.items, p.filter.Search, p.fields)
	out = FilterByType(out, p.filter.Type, p.categories)
	out = FilterByMonth(out, p.filter.Month)
	return SortByDateDesc(out)
}

// Slice computes the current page.
func (p *Presenter) Slice() PageSlice {
	filtered := p.Filtered()
	total := TotalPages(len(filtered), p.pageSize)
	page := ClampPage(p.page, total)
	return PageSlice{
		Items:      Paginate(filtered, page, p.pageSize),
		Page:       page,
		PageSize:   p.pageSize,
		TotalPages: total,
		Total:      len(filtered),
	}
}

// FromQuery reads q, type, month and page from a request query.
func FromQuery(v url.Values) (FilterState, int) {
	f := FilterState{
		Search: strings.TrimSpace(v.Get("q")),
		Type:   strings.ToLower(strings.TrimSpace(v.Get("type"))),
		Month:  normalizeMonth(v.Get("month")),
	}
	if f.Type == "" {
		f.Type = TypeAll
	}
	page, err := strconv.Atoi(strings.TrimSpace(v.Get("page")))
	if err != nil || page < 1 {
		page = 1
	}
	return f, page
}

// normalizeMonth accepts "YYYY-MM" and "YYYY-MM-DD" and drops anything else.
func normalizeMonth(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 7 && s[4] == '-' {
		s = s[:7]
		if _, err := strconv.Atoi(s[:4]); err == nil {
			if m, err := strconv.Atoi(s[5:7]); err == nil && m >= 1 && m <= 12 {
				return s
			}
		}
	}
	return ""
}
