package httpmiddleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the window length.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientKey.
	KeyFunc func(*http.Request) string
	// MaxKeys bounds the number of tracked clients. Requests from new
	// clients are rejected while the table is full of active ones. Zero
	// means unbounded.
	MaxKeys int
}

// window counts requests in the current and the previous fixed window.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max     int
	maxKeys int
	length  time.Duration
	key    func(*http.Request) string
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	key := cfg.KeyFunc
	if key == nil {
		key = ClientKey
	}
	return &limiter{
		max:     cfg.Max,
		maxKeys: cfg.MaxKeys,
		length:  cfg.Window,
		key:     key,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// take consumes one request for key. The previous window is weighted by its
// remaining overlap with the sliding window ending at now.
func (l *limiter) take(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		if l.maxKeys > 0 && len(l.windows) >= l.maxKeys {
			l.sweepLocked(now)
			if len(l.windows) >= l.maxKeys {
				return 0, now.Add(l.length), false
			}
		}
		w = &window{start: now.Truncate(l.length)}
		l.windows[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*l.length:
		w.prev, w.curr = 0, 0
		w.start = now.Truncate(l.length)
	case elapsed >= l.length:
		w.prev, w.curr = w.curr, 0
		w.start = w.start.Add(l.length)
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.length)
	estimate := w.prev*max(overlap, 0) + w.curr
	reset = w.start.Add(l.length)
	if estimate >= float64(l.max) {
		return 0, reset, false
	}
	w.curr++
	return max(int(float64(l.max)-estimate-1), 0), reset, true
}

// sweep drops clients idle for two full windows.
func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

func (l *limiter) sweepLocked(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= 2*l.length {
			delete(l.windows, k)
		}
	}
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.take(l.key(r), l.now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits requests per client without evicting idle clients.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a goroutine that evicts idle
// clients every two windows until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		t := time.NewTicker(2 * l.length)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				l.sweep(now)
			}
		}
	}()
	return l.middleware()
}

// ClientKey keys shoppers by a fingerprint of their bearer token, so that
// buyers sharing a carrier NAT address do not throttle each other.
// Anonymous requests fall back to the peer address. Tokens are not verified
// here, so ClientKey must sit behind an IPKey limiter that bounds how many
// token buckets one address can open.
func ClientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > len("Bearer ") &&
		strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		sum := sha256.Sum256([]byte(strings.TrimSpace(auth[len("Bearer "):])))
		return "token:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + clientIP(r, false)
}

// IPKey keys requests by client address. X-Forwarded-For and X-Real-IP are
// only consulted when trustForwarded is set, i.e. when a proxy in front of
// the server sets them.
func IPKey(trustForwarded bool) func(*http.Request) string {
	return func(r *http.Request) string {
		return "ip:" + clientIP(r, trustForwarded)
	}
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		// The nearest proxy appends the last hop; earlier ones come from the client.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
