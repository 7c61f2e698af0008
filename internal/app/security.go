package app

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"topikbank/internal/app/apiresp"
	"topikbank/internal/auth"
)

const (
	csrfCookieName = "topikbank_csrf"
	csrfHeaderName = "X-CSRF-Token"
)

type rateBucket struct {
	Count      int
	WindowEnds time.Time
}

// UploadLimiter is a fixed-window counter per caller. Expired buckets are dropped whenever
// the map grows past pruneAt entries.
type UploadLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	pruneAt int
	now     func() time.Time
	store   map[string]rateBucket
}

func NewUploadLimiter(max int, window time.Duration) *UploadLimiter {
	if max <= 0 {
		max = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &UploadLimiter{
		max:     max,
		window:  window,
		pruneAt: 1024,
		now:     time.Now,
		store:   make(map[string]rateBucket),
	}
}

// Allow reports whether key may proceed and, if not, how long until its window resets.
func (l *UploadLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.store) >= l.pruneAt {
		for k, b := range l.store {
			if now.After(b.WindowEnds) {
				delete(l.store, k)
			}
		}
	}

	b := l.store[key]
	if now.After(b.WindowEnds) {
		b = rateBucket{WindowEnds: now.Add(l.window)}
	}
	if b.Count >= l.max {
		l.store[key] = b
		return false, b.WindowEnds.Sub(now)
	}
	b.Count++
	l.store[key] = b
	return true, 0
}

// RateLimitMiddleware keys callers by admin key when one is present, otherwise by client IP.
func RateLimitMiddleware(l *UploadLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(callerKey(r))
			if !ok {
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				apiresp.WriteError(w, r, http.StatusTooManyRequests, "upload rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if a, ok := auth.CurrentAdmin(r.Context()); ok && a.KeyID != "" {
		return "key:" + a.KeyID
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return "ip:" + host
}

// CSRFMiddleware enforces a double-submit token on unsafe methods for browser clients.
// Requests that authenticate with an admin key header are not cookie-based and pass through.
func CSRFMiddleware(enforced bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforced || isSafeMethod(r.Method) || r.Header.Get(auth.AdminKeyHeader) != "" {
				next.ServeHTTP(w, r)
				return
			}

			c, err := r.Cookie(csrfCookieName)
			if err != nil || strings.TrimSpace(c.Value) == "" {
				apiresp.WriteError(w, r, http.StatusForbidden, "csrf token missing")
				return
			}
			if h := strings.TrimSpace(r.Header.Get(csrfHeaderName)); h == "" || h != c.Value {
				apiresp.WriteError(w, r, http.StatusForbidden, "csrf token invalid")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
