package cms

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resource kinds.
const (
	KindCollection = "collection"
	KindSingle     = "single"
	KindEvents     = "events"
	KindVideos     = "videos"
)

const defaultPageSize = 10

// MaxPageSize is the largest page the content API serves in one response.
const MaxPageSize = 100

// Names is a list of candidate source field names. In YAML it may be written
// as a scalar or a sequence.
type Names []string

func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*n = splitNames(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = Names(list)
		return nil
	default:
		return fmt.Errorf("line %d: field names must be a string or a list", node.Line)
	}
}

func splitNames(s string) Names {
	var out Names
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FieldMap tells the normalizer where each canonical field lives in a record.
type FieldMap struct {
	Title      Names `yaml:"title"`
	Date       Names `yaml:"date"`
	Summary    Names `yaml:"summary"`
	Body       Names `yaml:"body"`
	Attachment Names `yaml:"attachment"`
	Media      Names `yaml:"media"`
	ExternalID Names `yaml:"external_id"`
}

// Category groups file extensions under one filter label.
type Category struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"ext"`
}

// Resource describes one content type: where it lives, how to request it and
// how its records map onto ContentItem.
type Resource struct {
	Name                  string            `yaml:"-"`
	Path                  string            `yaml:"path"`
	Kind                  string            `yaml:"kind"`
	Populate              []string          `yaml:"populate"`
	Sort                  []string          `yaml:"sort"`
	PageSize              int               `yaml:"page_size"`
	Fields                FieldMap          `yaml:"fields"`
	Search                []string          `yaml:"search"`
	Fallbacks             map[string]string `yaml:"fallbacks"`
	FallbackExt           string            `yaml:"fallback_ext"`
	Categories            []Category        `yaml:"categories"`
	LocalizationsFallback bool              `yaml:"localizations_fallback"`
	Header                string            `yaml:"header"`
}

// Query returns the request parameters for listing this resource.
func (r *Resource) Query() Query {
	return Query{
		Populate: append([]string(nil), r.Populate...),
		Sort:     append([]string(nil), r.Sort...),
	}
}

// ListQuery is Query for a whole collection in one request. Lists are
// filtered and paginated locally.
func (r *Resource) ListQuery() Query {
	q := r.Query()
	q.PageSize = MaxPageSize
	return q
}

// Fallback returns the configured placeholder for field.
func (r *Resource) Fallback(field string) string {
	if r == nil {
		return ""
	}
	return r.Fallbacks[field]
}

// Category looks up a filter category by name.
func (r *Resource) Category(name string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// HeaderSource names a single-type page document and the UI string keys used
// when it is missing.
type HeaderSource struct {
	Path           string `yaml:"path"`
	TitleKey       string `yaml:"title_key"`
	DescriptionKey string `yaml:"description_key"`
}

// StatPoint is one bar of a stats dataset.
type StatPoint struct {
	Label string  `yaml:"label"`
	Value float64 `yaml:"value"`
}

// StatSet is a static dataset displayed by the stats widget. Labels may be
// UI string keys.
type StatSet struct {
	Key      string      `yaml:"key"`
	TitleKey string      `yaml:"title_key"`
	Unit     string      `yaml:"unit"`
	Chart    string      `yaml:"chart"`
	Points   []StatPoint `yaml:"points"`
}

// Chantier is one strategic programme linked from the chantiers widget.
type Chantier struct {
	Anchor   string `yaml:"anchor"`
	Icon     string `yaml:"icon"`
	TitleKey string `yaml:"title_key"`
}

// SocialLink is an outbound link displayed by the socials widget.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Icon string `yaml:"icon"`
}

// Leader is a former director-general shown on the about page. Image is
// optional.
type Leader struct {
	Name  string `yaml:"name"`
	Term  string `yaml:"term"`
	Image string `yaml:"image"`
}

// Table is the parsed resources file.
type Table struct {
	Resources map[string]*Resource    `yaml:"resources"`
	Headers   map[string]HeaderSource `yaml:"headers"`
	Stats     []StatSet               `yaml:"stats"`
	Chantiers []Chantier              `yaml:"chantiers"`
	Socials   []SocialLink            `yaml:"socials"`
	FormerDGs []Leader                `yaml:"former_dgs"`
}

// LoadTable reads and validates the resources file at name inside fsys.
func LoadTable(fsys fs.FS, name string) (*Table, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read resources %s: %w", name, err)
	}
	return ParseTable(raw)
}

// ParseTable decodes a resources document and fills defaults.
func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	if len(t.Resources) == 0 {
		return nil, errors.New("parse resources: no resources defined")
	}
	var problems []string
	for name, r := range t.Resources {
		if r == nil {
			problems = append(problems, name+": empty definition")
			continue
		}
		r.Name = name
		if r.Path == "" {
			r.Path = name
		}
		if r.Kind == "" {
			r.Kind = KindCollection
		}
		switch r.Kind {
		case KindCollection, KindSingle, KindEvents, KindVideos:
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown kind %q", name, r.Kind))
		}
		if r.PageSize <= 0 {
			r.PageSize = defaultPageSize
		}
		if len(r.Fields.Title) == 0 {
			r.Fields.Title = Names{"title"}
		}
		if len(r.Fields.Date) == 0 {
			r.Fields.Date = Names{"date"}
		}
		if len(r.Search) == 0 {
			r.Search = []string{"title"}
		}
		r.FallbackExt = strings.TrimPrefix(strings.ToLower(r.FallbackExt), ".")
		for i := range r.Categories {
			for j, ext := range r.Categories[i].Extensions {
				r.Categories[i].Extensions[j] = strings.TrimPrefix(strings.ToLower(ext), ".")
			}
		}
	}
	for name, h := range t.Headers {
		if h.Path == "" {
			problems = append(problems, "headers."+name+": path is required")
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("parse resources: %s", strings.Join(problems, "; "))
	}
	return &t, nil
}

// Resource returns the named resource definition.
func (t *Table) Resource(name string) (*Resource, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.Resources[name]
	return r, ok
}

// Header returns the page header source for page.
func (t *Table) Header(page string) (HeaderSource, bool) {
	if t == nil {
		return HeaderSource{}, false
	}
	h, ok := t.Headers[page]
	return h, ok
}

// Names returns the resource names sorted alphabetically.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
