// Package download proxies CMS attachments so the browser saves them under a
// readable file name instead of the upload hash.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/observability"
)

// Source is the part of the CMS client the proxy needs.
type Source interface {
	FetchCollection(ctx context.Context, resource, locale string, q cms.Query) ([]cms.Record, error)
	FetchBinary(ctx context.Context, ref string) (*cms.Binary, error)
	ResolveURL(ref string) string
}

// Handler serves GET /{resource}/{id}/download.
type Handler struct {
	source Source
	table  *cms.Table
	locale func(*http.Request) string
}

// New builds the proxy. locale extracts the request language.
func New(source Source, table *cms.Table, locale func(*http.Request) string) *Handler {
	if locale == nil {
		locale = func(*http.Request) string { return "" }
	}
	return &Handler{source: source, table: table, locale: locale}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	name := chi.URLParam(r, "resource")
	key := chi.URLParam(r, "id")
	res, ok := h.table.Resource(name)
	if !ok || key == "" {
		http.NotFound(w, r)
		return
	}

	item, err := h.find(ctx, res, key, h.locale(r))
	if err != nil {
		if errors.Is(err, errNoItem) {
			http.NotFound(w, r)
			return
		}
		logger.Warn("download lookup failed", zap.String("resource", name), zap.String("id", key), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	if item.Attachment == "" {
		http.NotFound(w, r)
		return
	}

	raw := h.source.ResolveURL(item.Attachment)
	bin, err := h.source.FetchBinary(ctx, item.Attachment)
	if err != nil {
		// The browser can still fetch the file directly.
		logger.Warn("download proxy failed, redirecting",
			zap.String("resource", name),
			zap.String("id", key),
			zap.String("url", raw),
			zap.Error(err),
		)
		http.Redirect(w, r, raw, http.StatusFound)
		return
	}
	defer bin.Close()

	w.Header().Set("Content-Type", bin.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(FileName(item.Title, item.AttachmentExt, raw)))
	if bin.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(bin.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bin.Body); err != nil {
		logger.Debug("download stream interrupted", zap.Error(err))
	}
}

var errNoItem = errors.New("download: item not found")

func (h *Handler) find(ctx context.Context, res *cms.Resource, key, lang string) (cms.ContentItem, error) {
	recs, err := h.source.FetchCollection(ctx, res.Path, lang, res.ListQuery())
	if err != nil {
		return cms.ContentItem{}, err
	}
	for _, rec := range recs {
		item := cms.Normalize(res, rec)
		if item.Matches(key) {
			return item, nil
		}
	}
	return cms.ContentItem{}, errNoItem
}

// FileName derives "<title>.<ext>" for the saved file. The extension comes
// from ext, else from the URL, else it is omitted.
func FileName(title, ext, rawURL string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || unicode.IsControl(r):
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if base == "" {
		base = "document"
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(path.Ext(stripQuery(rawURL))), ".")
	}
	if ext == "" || strings.HasSuffix(strings.ToLower(base), "."+ext) {
		return base
	}
	return base + "." + ext
}

// ContentDisposition formats an attachment header with an ASCII filename and,
// when needed, an RFC 6266 filename* carrying the UTF-8 name.
func ContentDisposition(name string) string {
	ascii := asciiFallback(name)
	if ascii == name {
		return mime.FormatMediaType("attachment", map[string]string{"filename": name})
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, percentEncode(name))
}

// asciiFallback strips diacritics from s and replaces what is left outside
// ASCII, and the quoting characters, with '_'.
func asciiFallback(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, s)
}

// percentEncode applies the RFC 5987 attr-char set.
func percentEncode(s string) string {
	const attrChars = "!#$&+-.^_`|~"
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || strings.IndexByte(attrChars, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
