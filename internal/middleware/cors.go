package middleware

import (
	"net/http"
	"strings"
)

// CORSAllowedMethods lists the methods the API answers.
var CORSAllowedMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

// CORSAllowedHeaders is the set of request headers allowed for CORS.
var CORSAllowedHeaders = []string{"Accept", "Content-Type", "X-Request-Id"}

// CORS sets CORS response headers for allowed origins and answers preflight requests.
// "*" in origins allows any origin. With no origins the middleware is a no-op.
// OPTIONS requests that are not preflights fall through to the router.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	allowAll := false
	originSet := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}
	methods := strings.Join(CORSAllowedMethods, ", ")
	headers := strings.Join(CORSAllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")
			if !allowAll && !originSet[origin] {
				next.ServeHTTP(w, r)
				return
			}
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
