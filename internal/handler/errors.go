package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/domain/preview"
	"github.com/digitaltumana/storefront/internal/domain/registration"
	"github.com/digitaltumana/storefront/internal/marketplace"
	"github.com/digitaltumana/storefront/internal/session"
)

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("invalid request")

// mapError converts an error into the status code and message returned to
// the web client.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNoToken):
		return http.StatusUnauthorized, "missing bearer token"
	case errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, session.ErrUnverified):
		return http.StatusUnauthorized, "session could not be verified"
	case errors.Is(err, marketplace.ErrUnauthorized):
		return http.StatusUnauthorized, "session rejected by marketplace"
	case errors.Is(err, checkout.ErrConsentRequired):
		return http.StatusUnprocessableEntity, "consent required"
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout already in progress"
	case errors.Is(err, errBadRequest), errors.Is(err, registration.ErrUnknownRole):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, preview.ErrMalformedPreview):
		return http.StatusBadGateway, "marketplace returned a malformed order preview"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "marketplace timed out"
	}

	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return http.StatusBadGateway, apiErr.Message
		}
		return http.StatusBadGateway, "marketplace request failed"
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError logs err and writes the {code, message} body chosen by mapError.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := mapError(err)

	lg := zctx.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		lg.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
