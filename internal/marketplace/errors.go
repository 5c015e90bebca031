package marketplace

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrUnauthorized is returned when the backend rejects the session token.
var ErrUnauthorized = errors.New("session token rejected")

// APIError is a non-successful backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("marketplace: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("marketplace: %d %s", e.StatusCode, e.Message)
}

// checkStatus converts a non-2xx response into an error.
func checkStatus(resp *response) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}
	msg := errorMessage(resp.body)
	if resp.status == http.StatusUnauthorized {
		if msg == "" {
			return ErrUnauthorized
		}
		return errors.Wrap(ErrUnauthorized, msg)
	}
	return &APIError{StatusCode: resp.status, Message: msg}
}

// errorMessage extracts the "message" (or "error") field of a JSON error
// body. Bodies that are not JSON objects yield "".
func errorMessage(body []byte) string {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return ""
	}

	var msg, alt string
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "message":
			s, err := readString(d)
			msg = s
			return err
		case "error":
			if d.Next() != jx.String {
				return d.Skip()
			}
			s, err := d.Str()
			alt = s
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return ""
	}
	if msg == "" {
		return alt
	}
	return msg
}
