package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the result of a checkout attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeRefused   Outcome = "refused"
)

// Attempt is the audit record of one checkout attempt.
type Attempt struct {
	ID            string
	Subject       string
	SellerCount   int
	ProductTotal  decimal.Decimal
	ShippingTotal decimal.Decimal
	GrandTotal    decimal.Decimal
	Outcome       Outcome
	OrderID       string
	Error         string
	CreatedAt     time.Time
}

// AttemptRecorder persists checkout attempts.
type AttemptRecorder interface {
	Record(ctx context.Context, a *Attempt) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *Attempt) error { return nil }
