package middleware

import "net/http"

// HTMX flags requests that expect a fragment. Boosted navigations replace
// the whole body and are served full pages.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		partial := r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
		// Fragments and full pages share URLs.
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), partial)))
	})
}
