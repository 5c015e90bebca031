package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for the storefront web client.
type CORSConfig struct {
	// AllowOrigins lists the web origins allowed to call the API. Empty or
	// "*" allows every origin.
	AllowOrigins []string
	// AllowHeaders defaults to Authorization, Content-Type and X-Request-ID.
	AllowHeaders []string
	// MaxAge is the preflight cache lifetime in seconds. Zero omits it.
	MaxAge int
}

var (
	corsMethods       = "GET, POST, OPTIONS"
	corsDefaultHeader = []string{"Authorization", "Content-Type", HeaderRequestID}
	corsExposeHeaders = strings.Join([]string{HeaderRequestID, "Retry-After", "X-RateLimit-Remaining"}, ", ")
)

// CORS answers preflight requests and decorates responses for allowed
// origins. Credentials are never allowed: the bearer token travels in the
// Authorization header, not in cookies.
func CORS(cfg CORSConfig) Middleware {
	wildcard := len(cfg.AllowOrigins) == 0
	origins := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
		origins[strings.ToLower(o)] = o
	}
	headers := cfg.AllowHeaders
	if len(headers) == 0 {
		headers = corsDefaultHeader
	}
	allowHeaders := strings.Join(headers, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	allowOrigin := func(origin string) string {
		if wildcard {
			return "*"
		}
		return origins[strings.ToLower(origin)]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !wildcard {
				h.Add("Vary", "Origin")
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					if maxAge != "" {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}
			next.ServeHTTP(w, r)
		})
	}
}
