// Package handler serves the storefront JSON API consumed by the web client.
// Every /api route acts on behalf of the shopper whose bearer token it
// carries; cart and order state stay with the marketplace backend.
package handler

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/domain/catalog"
	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/domain/registration"
	"github.com/digitaltumana/storefront/internal/marketplace"
	"github.com/digitaltumana/storefront/internal/session"
)

var _ Marketplace = (*marketplace.Client)(nil)

// Marketplace is the backend surface used by the API.
type Marketplace interface {
	checkout.API
	RegistrationStatus(ctx context.Context, s *session.Session, role registration.Role) (registration.Status, error)
	Products(ctx context.Context, s *session.Session) ([]catalog.Product, error)
}

// AttemptStore records checkout attempts and lists a shopper's recent ones.
type AttemptStore interface {
	checkout.AttemptRecorder
	Recent(ctx context.Context, subject string, limit int) ([]checkout.Attempt, error)
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ShippingFeePerSeller is charged once per distinct seller.
	ShippingFeePerSeller decimal.Decimal
	// MeterProvider records the checkout attempt counter. Nil disables it.
	MeterProvider metric.MeterProvider
	// Verifier checks token signatures. The attempt log is keyed by the
	// verified subject, so without a Verifier it is neither written nor read.
	Verifier *session.Verifier
}

// Handler serves the /api routes.
type Handler struct {
	api      Marketplace
	attempts AttemptStore
	verifier *session.Verifier
	fee      decimal.Decimal
	validate *validator.Validate
	counter  metric.Int64Counter
	now      func() time.Time
	newRand  func() *rand.Rand
}

// NewHandler constructs a Handler. attempts may be nil, which disables the
// attempt log.
func NewHandler(cfg HandlerConfig, api Marketplace, attempts AttemptStore) (*Handler, error) {
	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	counter, err := mp.Meter("github.com/digitaltumana/storefront/internal/handler").Int64Counter(
		"storefront.checkout.attempts",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create attempt counter")
	}

	return &Handler{
		api:      api,
		attempts: attempts,
		verifier: cfg.Verifier,
		fee:      cfg.ShippingFeePerSeller,
		validate: newValidator(),
		counter:  counter,
		now:      time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}, nil
}

// Routes returns the authenticated /api routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cart-preview", h.CartPreview)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/checkout/attempts", h.Attempts)
	mux.HandleFunc("GET /api/account/registrations", h.Registrations)
	mux.HandleFunc("GET /api/products", h.Products)
	return Authenticate(h.now)(mux)
}

// newFlow creates the Flow of one checkout request. Attempts are recorded
// only for shoppers whose token verifies.
func (h *Handler) newFlow(r *http.Request, s *session.Session) *checkout.Flow {
	cfg := checkout.FlowConfig{ShippingFeePerSeller: h.fee}
	if h.attempts != nil {
		subject, err := h.subject(s)
		if err == nil {
			cfg.Recorder = h.attempts
			cfg.Subject = subject
		} else {
			zctx.From(r.Context()).Debug("Attempt not recorded", zap.Error(err))
		}
	}
	return checkout.NewFlow(h.api, s, cfg)
}

// subject returns the verified identity of s.
func (h *Handler) subject(s *session.Session) (string, error) {
	if h.verifier == nil {
		return "", session.ErrUnverified
	}
	return h.verifier.Subject(s)
}
