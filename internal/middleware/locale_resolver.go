package middleware

import (
	"net/http"
	"time"

	"conatel.gouv.ht/web/internal/locale"
	"conatel.gouv.ht/web/internal/observability"
	"go.uber.org/zap"
)

const localeCookieTTL = 365 * 24 * time.Hour

// cookieStore persists the explicit language choice in a long-lived cookie.
type cookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	name   string
	secure bool
}

func (c *cookieStore) Load() (string, bool) {
	ck, err := c.r.Cookie(c.name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *cookieStore) Save(code string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.name,
		Value:    code,
		Path:     "/",
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(localeCookieTTL),
	})
	return nil
}

// Locale resolves the request language: ?hl= override, then the persisted
// cookie, then the language detected on an earlier visit, then Accept-Language.
// The per-request Preference is available through PreferenceFromContext.
func Locale(resolver *locale.Resolver, cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			accept := r.Header.Get("Accept-Language")
			if s.Locale == "" {
				detected, ok := resolver.MatchAcceptLanguage(accept)
				if !ok {
					detected = resolver.Fallback()
				}
				s.Locale = detected
				s.MarkDirty()
			}

			store := &cookieStore{w: w, r: r, name: cookieName, secure: secure}
			pref := locale.NewPreference(resolver, store, s.Locale, accept)
			if hl := r.URL.Query().Get("hl"); hl != "" {
				if _, err := pref.Set(hl); err != nil {
					observability.FromContext(r.Context()).Warn("persist locale", zap.Error(err))
				}
			}
			lang := pref.Current()
			w.Header().Set("Content-Language", lang)

			ctx := WithLang(r.Context(), lang)
			ctx = withPreference(ctx, pref)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Lang returns the resolved language for r, or fallback when Locale did not run.
func Lang(r *http.Request, fallback string) string {
	if v, ok := LangFromContext(r.Context()); ok {
		return v
	}
	return fallback
}

// VaryLocale declares the request headers a localized response depends on.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"Accept-Language", "Cookie"} {
			w.Header().Add("Vary", h)
		}
		next.ServeHTTP(w, r)
	})
}
