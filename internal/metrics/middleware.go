package metrics

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatched is the endpoint label for requests no route claimed.
const unmatched = "unmatched"

// Endpoint returns the label a request is counted under: the chi route
// pattern when routing matched, otherwise the cleaned URL path.
func Endpoint(r *http.Request, status int) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		return unmatched
	}
	return path.Clean("/" + r.URL.Path)
}

// Middleware records every request passing through it, including requests
// rejected further down the chain. A panic that reaches it is recorded as a
// 500 and re-raised for an outer recoverer.
func Middleware(c *Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := c.now()
			defer func() {
				if rvr := recover(); rvr != nil {
					c.Record(Endpoint(r, http.StatusInternalServerError), http.StatusInternalServerError, c.now().Sub(start))
					panic(rvr)
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				c.Record(Endpoint(r, status), status, c.now().Sub(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
