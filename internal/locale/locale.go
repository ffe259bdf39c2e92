// Package locale decides which content language a visitor sees and keeps
// that choice consistent for the rest of the visit.
package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	// French is the fallback language of the site.
	French = "fr"
	// Creole is Haitian Creole.
	Creole = "ht"
)

// DefaultSupported lists the published languages in order of preference.
var DefaultSupported = []string{French, Creole}

// Sources carries the candidate values consulted by Resolve, highest priority first.
type Sources struct {
	Persisted      string
	Detected       string
	AcceptLanguage string
}

// Resolver maps raw language hints to one of the supported codes.
type Resolver struct {
	supported []string
	fallback  string
	matcher   language.Matcher
}

// NewResolver builds a resolver for the supported codes. The fallback must be supported.
func NewResolver(supported []string, fallback string) (*Resolver, error) {
	if len(supported) == 0 {
		supported = DefaultSupported
	}
	if fallback == "" {
		fallback = French
	}
	codes := make([]string, 0, len(supported))
	seen := map[string]struct{}{}
	for _, code := range supported {
		base, err := baseOf(code)
		if err != nil {
			return nil, fmt.Errorf("locale: supported %q: %w", code, err)
		}
		if _, dup := seen[base]; dup {
			continue
		}
		seen[base] = struct{}{}
		codes = append(codes, base)
	}
	fb, err := baseOf(fallback)
	if err != nil {
		return nil, fmt.Errorf("locale: fallback %q: %w", fallback, err)
	}
	if _, ok := seen[fb]; !ok {
		return nil, fmt.Errorf("locale: fallback %q is not supported", fallback)
	}

	// The matcher answers with its first tag on no match, so the fallback leads.
	ordered := []string{fb}
	for _, c := range codes {
		if c != fb {
			ordered = append(ordered, c)
		}
	}
	tags := make([]language.Tag, len(ordered))
	for i, c := range ordered {
		tags[i] = language.Make(c)
	}

	return &Resolver{
		supported: ordered,
		fallback:  fb,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Supported returns the supported codes, fallback first.
func (r *Resolver) Supported() []string {
	out := make([]string, len(r.supported))
	copy(out, r.supported)
	return out
}

// Fallback returns the language used when nothing else matches.
func (r *Resolver) Fallback() string { return r.fallback }

// Normalize reduces a tag such as "fr-FR" to its supported base code.
// The boolean is false when the value is not supported.
func (r *Resolver) Normalize(code string) (string, bool) {
	base, err := baseOf(code)
	if err != nil {
		return "", false
	}
	for _, s := range r.supported {
		if s == base {
			return s, true
		}
	}
	return "", false
}

// Clamp returns the supported code for value, or the fallback.
func (r *Resolver) Clamp(code string) string {
	if v, ok := r.Normalize(code); ok {
		return v
	}
	return r.fallback
}

// Resolve picks the effective locale: persisted choice, then the previously
// detected value, then the Accept-Language header, then the fallback.
func (r *Resolver) Resolve(src Sources) string {
	if v, ok := r.Normalize(src.Persisted); ok {
		return v
	}
	if v, ok := r.Normalize(src.Detected); ok {
		return v
	}
	if v, ok := r.MatchAcceptLanguage(src.AcceptLanguage); ok {
		return v
	}
	return r.fallback
}

// MatchAcceptLanguage finds the best supported language for an Accept-Language header.
func (r *Resolver) MatchAcceptLanguage(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return "", false
	}
	_, idx, conf := r.matcher.Match(prefs...)
	if conf == language.No {
		return "", false
	}
	return r.supported[idx], true
}

func baseOf(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return base.String(), nil
}
