package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

var (
	// ErrConsentRequired is returned when checkout is attempted before the
	// shopper accepted the terms. No request is sent in that case.
	ErrConsentRequired = errors.New("consent to the terms is required before checkout")
	// ErrCheckoutInProgress is returned when a checkout is attempted while a
	// previous attempt has not finished.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// Confirmation is the backend's answer to a successful checkout.
type Confirmation struct {
	OrderID string
	Message string
}

// Submitter issues the checkout request.
type Submitter interface {
	Submit(ctx context.Context) (*Confirmation, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context) (*Confirmation, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context) (*Confirmation, error) { return f(ctx) }

// Gate blocks checkout until consent is given. Consent only changes through
// SetConsent; a failed submission leaves it as it was so the shopper can
// retry without confirming again.
type Gate struct {
	submitter Submitter

	mu        sync.Mutex
	consented bool
	inFlight  bool
}

// NewGate returns a Gate in the unconfirmed state.
func NewGate(s Submitter) *Gate {
	return &Gate{submitter: s}
}

// SetConsent records the shopper's answer to the terms.
func (g *Gate) SetConsent(v bool) {
	g.mu.Lock()
	g.consented = v
	g.mu.Unlock()
}

// Consented reports whether the terms have been accepted.
func (g *Gate) Consented() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.consented
}

// AttemptCheckout submits the order once when consent was given.
func (g *Gate) AttemptCheckout(ctx context.Context) (*Confirmation, error) {
	g.mu.Lock()
	if !g.consented {
		g.mu.Unlock()
		return nil, ErrConsentRequired
	}
	if g.inFlight {
		g.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	g.inFlight = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}()

	c, err := g.submitter.Submit(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "submit checkout")
	}
	return c, nil
}
