package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
)

// KeyFunc derives the caller key for a request.
type KeyFunc func(r *http.Request) string

// RemoteHost keys callers by the host part of r.RemoteAddr. When a proxy
// middleware has already replaced RemoteAddr with a bare IP, that IP is used.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RejectFunc writes the response for a request over the limit. The
// Retry-After header is already set when it runs.
type RejectFunc func(w http.ResponseWriter, r *http.Request)

// Middleware rejects requests over the limit with a Retry-After header and
// hands the response to reject. A nil key uses RemoteHost; a nil reject
// writes a bare 429.
func Middleware(l *SlidingWindow, key KeyFunc, reject RejectFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = RemoteHost
	}
	if reject == nil {
		reject = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if l.Admit(k) {
				next.ServeHTTP(w, r)
				return
			}
			secs := int(math.Ceil(l.RetryAfter(k).Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			reject(w, r)
		})
	}
}
