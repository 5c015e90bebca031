package marketplace

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/domain/preview"
	"github.com/digitaltumana/storefront/internal/session"
)

// CartPreview fetches the server-computed cart preview.
func (c *Client) CartPreview(ctx context.Context, s *session.Session) (*preview.OrderPreview, error) {
	resp, err := c.do(ctx, s, http.MethodGet, "cart-preview", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return decodePreview(resp.body)
}

// Checkout places the order for the shopper's current cart. The backend
// reads the cart from the session; no request body is sent.
func (c *Client) Checkout(ctx context.Context, s *session.Session) (*checkout.Confirmation, error) {
	resp, err := c.do(ctx, s, http.MethodPost, "checkout", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return decodeConfirmation(resp.body)
}

// decodeConfirmation reads the optional order id and message of a checkout
// response. An empty body is a valid confirmation.
func decodeConfirmation(data []byte) (*checkout.Confirmation, error) {
	var c checkout.Confirmation
	if len(data) == 0 {
		return &c, nil
	}

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "orderId", "order_id", "_id":
			c.OrderID, err = readString(d)
		case "message":
			c.Message, err = readString(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	}); err != nil {
		return nil, errors.Wrap(err, "decode checkout response")
	}
	return &c, nil
}
