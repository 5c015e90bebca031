package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/domain/preview"
	"github.com/digitaltumana/storefront/internal/session"
)

// ErrPreviewNotLoaded is returned when the summary or checkout is requested
// before the order preview has been fetched.
var ErrPreviewNotLoaded = errors.New("order preview not loaded")

// API is the part of the marketplace backend a checkout needs.
type API interface {
	CartPreview(ctx context.Context, s *session.Session) (*preview.OrderPreview, error)
	Checkout(ctx context.Context, s *session.Session) (*Confirmation, error)
}

// Summary is the order preview with the totals derived for display.
type Summary struct {
	Preview              *preview.OrderPreview
	Groups               []preview.SellerGroup
	Totals               preview.Totals
	ShippingFeePerSeller decimal.Decimal
}

// FlowConfig holds non-dependency configuration for a Flow.
type FlowConfig struct {
	ShippingFeePerSeller decimal.Decimal
	// Recorder receives every checkout attempt. Nil disables recording.
	Recorder AttemptRecorder
	// Subject is the verified shopper identity attempts are recorded under.
	Subject string
}

// Flow is a single checkout session: it loads the preview, owns the consent
// gate and submits the order. A Flow is discarded after use; consent does
// not carry over to a new Flow.
type Flow struct {
	api      API
	sess     *session.Session
	fee      decimal.Decimal
	recorder AttemptRecorder
	subject  string
	gate     *Gate
	now      func() time.Time

	mu      sync.Mutex
	summary *Summary
}

// NewFlow creates a Flow for the given session.
func NewFlow(api API, sess *session.Session, cfg FlowConfig) *Flow {
	f := &Flow{
		api:      api,
		sess:     sess,
		fee:      cfg.ShippingFeePerSeller,
		recorder: cfg.Recorder,
		subject:  cfg.Subject,
		now:      time.Now,
	}
	if f.recorder == nil {
		f.recorder = nopRecorder{}
	}
	f.gate = NewGate(SubmitterFunc(func(ctx context.Context) (*Confirmation, error) {
		return f.api.Checkout(ctx, f.sess)
	}))
	return f
}

// Load fetches the preview, checks its shape and derives the totals.
// Loading again replaces the previous summary and keeps consent.
func (f *Flow) Load(ctx context.Context) (*Summary, error) {
	p, err := f.api.CartPreview(ctx, f.sess)
	if err != nil {
		return nil, errors.Wrap(err, "fetch preview")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sum := &Summary{
		Preview:              p,
		Groups:               preview.GroupBySeller(p.Items, f.fee),
		Totals:               preview.Aggregate(p.Items, f.fee),
		ShippingFeePerSeller: f.fee,
	}

	f.mu.Lock()
	f.summary = sum
	f.mu.Unlock()

	return sum, nil
}

// Summary returns the loaded summary.
func (f *Flow) Summary() (*Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summary == nil {
		return nil, ErrPreviewNotLoaded
	}
	return f.summary, nil
}

// SetConsent records the shopper's answer to the terms.
func (f *Flow) SetConsent(v bool) { f.gate.SetConsent(v) }

// Consented reports whether the terms have been accepted.
func (f *Flow) Consented() bool { return f.gate.Consented() }

// Checkout submits the loaded order through the consent gate.
func (f *Flow) Checkout(ctx context.Context) (*Confirmation, error) {
	sum, err := f.Summary()
	if err != nil {
		if !f.gate.Consented() {
			f.record(ctx, nil, OutcomeRefused, nil, ErrConsentRequired)
			return nil, ErrConsentRequired
		}
		return nil, err
	}

	c, err := f.gate.AttemptCheckout(ctx)
	switch {
	case errors.Is(err, ErrCheckoutInProgress):
	case errors.Is(err, ErrConsentRequired):
		f.record(ctx, sum, OutcomeRefused, nil, err)
	case err != nil:
		f.record(ctx, sum, OutcomeFailed, nil, err)
	default:
		f.record(ctx, sum, OutcomeSucceeded, c, nil)
	}
	return c, err
}

// Place loads a fresh preview and submits it in one step. A refusal or a
// preview that cannot be loaded is recorded like a failed submission.
func (f *Flow) Place(ctx context.Context) (*Summary, *Confirmation, error) {
	if !f.gate.Consented() {
		_, err := f.Checkout(ctx)
		return nil, nil, err
	}

	sum, err := f.Load(ctx)
	if err != nil {
		f.record(ctx, nil, OutcomeFailed, nil, err)
		return nil, nil, err
	}

	c, err := f.Checkout(ctx)
	if err != nil {
		return sum, nil, err
	}
	return sum, c, nil
}

func (f *Flow) record(ctx context.Context, sum *Summary, outcome Outcome, c *Confirmation, cause error) {
	a := &Attempt{
		ID:        uuid.New().String(),
		Subject:   f.subject,
		Outcome:   outcome,
		CreatedAt: f.now().UTC(),
	}
	if sum != nil {
		a.SellerCount = len(sum.Groups)
		a.ProductTotal = sum.Totals.ProductTotal
		a.ShippingTotal = sum.Totals.ShippingTotal
		a.GrandTotal = sum.Totals.GrandTotal
	}
	if c != nil {
		a.OrderID = c.OrderID
	}
	if cause != nil {
		a.Error = cause.Error()
	}

	if err := f.recorder.Record(ctx, a); err != nil {
		zctx.From(ctx).Warn("Record checkout attempt",
			zap.String("attempt_id", a.ID),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}
