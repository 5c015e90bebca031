package marketplace

import (
	"context"
	"net/http"

	"github.com/digitaltumana/storefront/internal/domain/registration"
	"github.com/digitaltumana/storefront/internal/session"
)

// statusByCode maps the backend's status endpoint codes to review states.
var statusByCode = map[int]registration.Status{
	http.StatusOK:        registration.StatusVerified,
	http.StatusNotFound:  registration.StatusUnregistered,
	http.StatusForbidden: registration.StatusPending,
	http.StatusGone:      registration.StatusDeclined,
}

// RegistrationStatus returns the review state of the shopper's application
// for role.
func (c *Client) RegistrationStatus(ctx context.Context, s *session.Session, role registration.Role) (registration.Status, error) {
	resp, err := c.do(ctx, s, http.MethodGet, string(role)+"/status", nil)
	if err != nil {
		return "", err
	}
	if st, ok := statusByCode[resp.status]; ok {
		return st, nil
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	// Other 2xx codes carry no defined meaning.
	return "", &APIError{StatusCode: resp.status, Message: "unexpected registration status"}
}
