package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/decisions"
	LabelKey string // i18n key, e.g. "nav.decisions"
	Icon     string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Icon     string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home", Icon: "house"},
	{Path: "/actualites", LabelKey: "nav.news", Icon: "newspaper"},
	{Path: "/decisions", LabelKey: "nav.decisions", Icon: "journal-check"},
	{Path: "/procedures", LabelKey: "nav.procedures", Icon: "list-check"},
	{Path: "/archives", LabelKey: "nav.archives", Icon: "archive"},
	{Path: "/rapports", LabelKey: "nav.reports", Icon: "file-earmark-bar-graph"},
	{Path: "/galerie", LabelKey: "nav.gallery", Icon: "images"},
	{Path: "/chantiers", LabelKey: "nav.chantiers", Icon: "kanban"},
	{Path: "/a-propos", LabelKey: "nav.about", Icon: "info-circle"},
	{Path: "/contact", LabelKey: "nav.contact", Icon: "envelope"},
}

// Extra lists reachable pages that are not in the menu but need crumb labels.
var Extra = []Item{
	{Path: "/recherche", LabelKey: "nav.search"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Icon:     it.Icon,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path, starting at home.
// Known sections use their nav label key; deeper segments are prettified.
func Breadcrumbs(currentPath string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return crumbs
	}

	top := "/" + parts[0]
	crumbs = append(crumbs, Crumb{
		Href:     top,
		LabelKey: labelKeyFor(top),
		Label:    titleFromSegment(parts[0]),
		Active:   len(parts) == 1,
	})

	href := top
	for i := 1; i < len(parts); i++ {
		href += "/" + parts[i]
		crumbs = append(crumbs, Crumb{
			Href:   href,
			Label:  titleFromSegment(parts[i]),
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func labelKeyFor(p string) string {
	for _, list := range [][]Item{Main, Extra} {
		for _, it := range list {
			if it.Path == p {
				return it.LabelKey
			}
		}
	}
	return ""
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
