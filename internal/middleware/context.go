package middleware

import (
	"context"

	"conatel.gouv.ht/web/internal/locale"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX     ctxKey = "is_htmx"
	ctxKeySession    ctxKey = "session"
	ctxKeyLang       ctxKey = "lang"
	ctxKeyPreference ctxKey = "locale_preference"
)

// WithHTMX marks request as HTMX
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// WithLang stores the resolved language code.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyLang, lang)
}

// LangFromContext returns the resolved language code, if any.
func LangFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyLang).(string)
	return v, ok && v != ""
}

func withPreference(ctx context.Context, p *locale.Preference) context.Context {
	return context.WithValue(ctx, ctxKeyPreference, p)
}

// PreferenceFromContext returns the per-request locale preference installed by Locale.
func PreferenceFromContext(ctx context.Context) *locale.Preference {
	p, _ := ctx.Value(ctxKeyPreference).(*locale.Preference)
	return p
}
