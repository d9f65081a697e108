package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimit allows limit requests per client IP in each window of length per.
// The client is r.RemoteAddr as seen by this middleware; forwarding headers are
// only honored if an earlier middleware, such as chi's RealIP, rewrote it.
// Rejected requests get a Retry-After header and are passed to deny, or a
// bare 429 when deny is nil. Expired buckets are swept whenever a new window
// starts for any client.
func RateLimit(limit int, per time.Duration, deny http.HandlerFunc) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)
	now := time.Now
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			mu.Lock()
			t := now()
			b, ok := buckets[ip]
			if !ok || t.After(b.until) {
				for key, other := range buckets {
					if t.After(other.until) {
						delete(buckets, key)
					}
				}
				b = &bucket{count: 0, until: t.Add(per)}
				buckets[ip] = b
			}
			if b.count >= limit {
				retry := int(b.until.Sub(t).Seconds()) + 1
				mu.Unlock()
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				if deny != nil {
					deny(w, r)
					return
				}
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			b.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
