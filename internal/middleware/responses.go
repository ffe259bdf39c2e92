package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEvent is dispatched client side through HX-Trigger.
type errorEvent struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// writeError answers a rejected request. htmx callers get an empty swap and
// a "conatel:error" event instead of an error page spliced into the DOM.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if !IsHTMX(r.Context()) {
		http.Error(w, msg, code)
		return
	}
	payload, err := json.Marshal(map[string]errorEvent{"conatel:error": {Status: code, Message: msg}})
	if err == nil {
		w.Header().Set("HX-Trigger", string(payload))
	}
	w.Header().Set("HX-Reswap", "none")
	w.WriteHeader(code)
}
