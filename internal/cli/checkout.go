package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
)

// TermsNotice is shown before the shopper is asked for consent.
const TermsNotice = "By placing this order you agree to the Digital Tumana Terms and Conditions\n" +
	"and Privacy Policy, including payment on delivery to the rider."

const defaultMaxAttempts = 3

// CheckoutOptions configures RunCheckout.
type CheckoutOptions struct {
	// AcceptTerms records consent without asking.
	AcceptTerms bool
	Prompter    Prompter
	Out         io.Writer
	// MaxAttempts bounds submissions including retries. Defaults to 3.
	MaxAttempts int
	// RequestTimeout bounds each backend call on its own, so time spent at
	// a prompt does not count against it. Zero means no extra bound.
	RequestTimeout time.Duration
}

func (o CheckoutOptions) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.RequestTimeout)
}

// RunCheckout loads and prints the order, asks for consent once and submits
// it. After a failed submission the shopper may retry without consenting
// again. ctx should carry no deadline of its own: prompts wait on the
// shopper for as long as it takes.
func RunCheckout(ctx context.Context, flow *checkout.Flow, opts CheckoutOptions) (*checkout.Confirmation, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	loadCtx, cancel := opts.requestContext(ctx)
	sum, err := flow.Load(loadCtx)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := RenderSummary(opts.Out, sum); err != nil {
		return nil, errors.Wrap(err, "render summary")
	}

	if opts.AcceptTerms {
		flow.SetConsent(true)
	} else {
		fmt.Fprintf(opts.Out, "\n%s\n", TermsNotice)
		agreed, err := opts.Prompter.Confirm("Do you agree to the terms and conditions?")
		if err != nil {
			return nil, err
		}
		flow.SetConsent(agreed)
	}

	for attempt := 1; ; attempt++ {
		callCtx, cancel := opts.requestContext(ctx)
		conf, err := flow.Checkout(callCtx)
		cancel()
		if err == nil {
			return conf, RenderConfirmation(opts.Out, conf)
		}
		if errors.Is(err, checkout.ErrConsentRequired) || attempt >= maxAttempts {
			return nil, err
		}

		fmt.Fprintf(opts.Out, "Checkout failed: %v\n", err)
		retry, perr := opts.Prompter.Confirm("Retry checkout?")
		if perr != nil {
			return nil, perr
		}
		if !retry {
			return nil, err
		}
	}
}
