package session

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnverified is returned when a token's signature or claims do not check
// out, or when it carries no subject.
var ErrUnverified = errors.New("session token not verified")

var signingMethod = jwt.SigningMethodHS256

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	// Secret is the HMAC key the marketplace signs tokens with.
	Secret string
	// Issuer, when set, must match the iss claim.
	Issuer string
}

// Verifier checks token signatures so the token subject can be used as the
// shopper identity for data the storefront itself stores.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. The secret is required.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}, nil
}

// Subject returns the subject of s after verifying its token.
func (v *Verifier) Subject(s *Session) (string, error) {
	var claims jwt.RegisteredClaims
	if _, err := v.parser.ParseWithClaims(s.Token(), &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return "", errors.Wrap(ErrUnverified, err.Error())
	}
	if claims.Subject == "" {
		return "", errors.Wrap(ErrUnverified, "token has no subject")
	}
	return claims.Subject, nil
}
