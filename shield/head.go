package shield

import "net/http"

// HeadToGet converts HEAD requests to GET so that routes registered with
// r.Get() answer health probes instead of 405. net/http strips the body.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
