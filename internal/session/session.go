// Package session carries the shopper's bearer token through the storefront.
//
// A Session is created once per login (CLI) or per request (BFF) and passed
// explicitly to the components that talk to the marketplace backend. Claims
// are read from JWT tokens without verifying the signature and serve only
// display and early expiry detection. Anything keyed by the shopper's
// identity goes through a Verifier first.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no bearer token is available.
var ErrNoToken = errors.New("no session token")

// Session is an authenticated shopper session.
type Session struct {
	token     string
	subject   string
	expiresAt time.Time
}

// New creates a Session for token. Tokens that are not JWTs are accepted
// as opaque and carry no claims.
func New(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}

	s := &Session{token: token}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
		s.subject = claims.Subject
		if claims.ExpiresAt != nil {
			s.expiresAt = claims.ExpiresAt.Time
		}
	}

	return s, nil
}

// FromAuthorization creates a Session from an Authorization header value of
// the form "Bearer <token>".
func FromAuthorization(header string) (*Session, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, ErrNoToken
	}
	return New(token)
}

// Token returns the raw bearer token.
func (s *Session) Token() string { return s.token }

// Subject returns the unverified token subject, or "" for opaque tokens.
func (s *Session) Subject() string { return s.subject }

// ExpiresAt returns the token expiry when the token declares one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	return s.expiresAt, !s.expiresAt.IsZero()
}

// Expired reports whether the token declares an expiry at or before now.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// Authorize sets the bearer Authorization header on r.
func (s *Session) Authorize(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+s.token)
}

type sessionKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the Session stored in ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
