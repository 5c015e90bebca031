package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/digitaltumana/storefront/internal/session"
)

// ErrSessionExpired is returned for bearer tokens whose exp claim has passed.
var ErrSessionExpired = errors.New("session expired")

// Authenticate requires a bearer token and stores the resulting session in
// the request context. Tokens are forwarded to the backend, which remains
// the verifier; only an expiry already visible in the claims is rejected
// here.
func Authenticate(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := session.FromAuthorization(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			if s.Expired(now()) {
				writeError(w, r, ErrSessionExpired)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// sessionFrom returns the session stored by Authenticate.
func sessionFrom(r *http.Request) (*session.Session, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return nil, session.ErrNoToken
	}
	return s, nil
}
