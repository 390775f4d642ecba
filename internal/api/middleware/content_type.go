package middleware

import (
	"net/http"
)

// ContentTypeJSON defaults the Content-Type to application/json. Handlers
// may still override it; mount it only on JSON routes so the HTML page keeps
// its own type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}
