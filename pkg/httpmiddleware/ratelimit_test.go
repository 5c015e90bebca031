package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func serve(h http.Handler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/cart-preview", nil)
	req.RemoteAddr = "203.0.113.7:51000"
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeErrorBody(t *testing.T, body []byte) (code int, message string) {
	t.Helper()
	require.NoError(t, jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Int()
			code = v
			return err
		case "message":
			v, err := d.Str()
			message = v
			return err
		default:
			return d.Skip()
		}
	}))
	return code, message
}

// --- Tests ---

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := serve(h, nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := serve(h, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	code, msg := decodeErrorBody(t, w.Body.Bytes())
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", msg)
}

func TestRateLimit_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	l.now = fixedClock(&now)

	_, _, ok := l.take("k", now)
	require.True(t, ok)
	remaining, _, ok := l.take("k", now)
	require.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, _, ok = l.take("k", now)
	require.False(t, ok)

	// Halfway into the next window the previous one still counts for half.
	now = now.Add(90 * time.Second)
	_, _, ok = l.take("k", now)
	assert.True(t, ok)
	_, _, ok = l.take("k", now)
	assert.False(t, ok)

	// Two idle windows reset the client completely.
	now = now.Add(3 * time.Minute)
	remaining, reset, ok := l.take("k", now)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, now.Truncate(time.Minute).Add(time.Minute), reset)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	withToken := func(tok string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
	}

	assert.Equal(t, http.StatusOK, serve(h, withToken("buyer-a")).Code)
	assert.Equal(t, http.StatusOK, serve(h, withToken("buyer-b")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, withToken("buyer-a")).Code)

	// Anonymous request from the same NAT address is a separate bucket.
	assert.Equal(t, http.StatusOK, serve(h, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, nil).Code)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "198.51.100.4:443", want: "ip:198.51.100.4"},
		{name: "remote without port", remote: "198.51.100.4", want: "ip:198.51.100.4"},
		{name: "forwarded headers ignored", headers: map[string]string{"X-Forwarded-For": "192.0.2.1", "X-Real-IP": "192.0.2.9"}, remote: "198.51.100.4:1", want: "ip:198.51.100.4"},
		{name: "basic auth is anonymous", headers: map[string]string{"Authorization": "Basic Zm9vOmJhcg=="}, remote: "192.0.2.2:1", want: "ip:192.0.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientKey(r))
		})
	}

	t.Run("bearer fingerprint", func(t *testing.T) {
		a := httptest.NewRequest(http.MethodGet, "/", nil)
		a.Header.Set("Authorization", "Bearer abc")
		b := httptest.NewRequest(http.MethodGet, "/", nil)
		b.Header.Set("Authorization", "bearer abc")

		key := ClientKey(a)
		assert.Equal(t, key, ClientKey(b))
		assert.Len(t, key, len("token:")+16)
		assert.NotContains(t, key, "abc")
	})
}

func TestIPKey(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		headers map[string]string
		want    string
	}{
		{name: "untrusted forwarded for", headers: map[string]string{"X-Forwarded-For": "192.0.2.1"}, want: "ip:198.51.100.4"},
		{name: "untrusted real ip", headers: map[string]string{"X-Real-IP": "192.0.2.9"}, want: "ip:198.51.100.4"},
		{name: "trusted nearest hop", trust: true, headers: map[string]string{"X-Forwarded-For": "10.9.9.9, 192.0.2.1"}, want: "ip:192.0.2.1"},
		{name: "trusted real ip", trust: true, headers: map[string]string{"X-Real-IP": "192.0.2.9"}, want: "ip:192.0.2.9"},
		{name: "trusted without headers", trust: true, want: "ip:198.51.100.4"},
		{name: "bearer ignored", headers: map[string]string{"Authorization": "Bearer abc"}, want: "ip:198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "198.51.100.4:443"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, IPKey(tt.trust)(r))
		})
	}
}

func TestRateLimit_RotatingTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	perIP := newLimiter(RateLimitConfig{Max: 5, Window: time.Minute, KeyFunc: IPKey(false)})
	perToken := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	perIP.now = fixedClock(&now)
	perToken.now = fixedClock(&now)
	h := Wrap(okHandler(), perIP.middleware(), perToken.middleware())

	passed := 0
	for i := range 1000 {
		rec := serve(h, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer junk-"+strconv.Itoa(i))
		})
		if rec.Code == http.StatusOK {
			passed++
		}
	}

	assert.Equal(t, 5, passed)
	assert.Equal(t, 1, perIP.size())
	assert.Equal(t, 5, perToken.size())
}

func TestRateLimit_MaxKeys(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Max: 5, Window: time.Minute, MaxKeys: 2})

	_, _, ok := l.take("a", now)
	require.True(t, ok)
	_, _, ok = l.take("b", now)
	require.True(t, ok)

	_, _, ok = l.take("c", now)
	assert.False(t, ok)
	_, _, ok = l.take("a", now)
	assert.True(t, ok, "known clients keep their bucket")
	assert.Equal(t, 2, l.size())

	// Idle clients are evicted to make room.
	later := now.Add(3 * time.Minute)
	_, _, ok = l.take("c", later)
	assert.True(t, ok)
	assert.Equal(t, 1, l.size())
}

func TestRateLimit_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Max: 5, Window: time.Minute})

	l.take("idle", now)
	l.take("active", now.Add(2*time.Minute))
	l.sweep(now.Add(2*time.Minute + time.Second))

	assert.Equal(t, 1, l.size())
}

func TestRateLimitWithCleanup_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := RateLimitWithCleanup(ctx, RateLimitConfig{Max: 1, Window: 10 * time.Millisecond})(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, nil).Code)
	cancel()
}
