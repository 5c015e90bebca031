package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
)

const (
	maxCheckoutBody = 1 << 10
	attemptsLimit   = 20
)

// checkoutRequest is the body of POST /api/checkout.
type checkoutRequest struct {
	Consent *bool `json:"consent" validate:"required"`
}

func decodeCheckoutRequest(w http.ResponseWriter, r *http.Request) (*checkoutRequest, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	if err != nil {
		return nil, errors.Wrap(errBadRequest, "read body")
	}

	var req checkoutRequest
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "consent" {
			return d.Skip()
		}
		v, err := d.Bool()
		if err != nil {
			return err
		}
		req.Consent = &v
		return nil
	}); err != nil {
		return nil, errors.Wrap(errBadRequest, "body must be a JSON object")
	}
	return &req, nil
}

// Checkout places the order. Without consent it answers 422 and never
// contacts the backend. Every outcome is counted and, for verified
// shoppers, recorded.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req, err := decodeCheckoutRequest(w, r)
	if err == nil {
		err = h.validateStruct(req)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	flow := h.newFlow(r, s)
	flow.SetConsent(*req.Consent)

	sum, conf, err := flow.Place(ctx)
	if err != nil {
		if errors.Is(err, checkout.ErrConsentRequired) {
			h.countAttempt(r, checkout.OutcomeRefused)
		} else {
			h.countAttempt(r, checkout.OutcomeFailed)
		}
		writeError(w, r, err)
		return
	}
	h.countAttempt(r, checkout.OutcomeSucceeded)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			str(e, "orderId", conf.OrderID)
			str(e, "message", conf.Message)
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, sum.Totals) })
		})
	})
}

func (h *Handler) countAttempt(r *http.Request, outcome checkout.Outcome) {
	h.counter.Add(r.Context(), 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// Attempts lists the shopper's recent checkout attempts, newest first. The
// list is empty when no attempt log or verifier is configured; a token that
// fails verification is rejected with 401.
func (h *Handler) Attempts(w http.ResponseWriter, r *http.Request) {
	s, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := attemptsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > attemptsLimit {
			writeError(w, r, errors.Wrapf(errBadRequest, "limit must be between 1 and %d", attemptsLimit))
			return
		}
		limit = n
	}

	var attempts []checkout.Attempt
	if h.attempts != nil && h.verifier != nil {
		subject, err := h.verifier.Subject(s)
		if err != nil {
			writeError(w, r, err)
			return
		}
		attempts, err = h.attempts.Recent(r.Context(), subject, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("attempts", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, a := range attempts {
						encodeAttempt(e, a)
					}
				})
			})
		})
	})
}
