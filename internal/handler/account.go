package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/digitaltumana/storefront/internal/domain/registration"
)

// Registrations reports the shopper's application status for every role.
// The statuses are fetched concurrently; the first failure aborts the rest.
func (h *Handler) Registrations(w http.ResponseWriter, r *http.Request) {
	s, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	statuses := make([]registration.Status, len(registration.Roles))
	g, ctx := errgroup.WithContext(r.Context())
	for i, role := range registration.Roles {
		g.Go(func() error {
			st, err := h.api.RegistrationStatus(ctx, s, role)
			if err != nil {
				return errors.Wrapf(err, "%s status", role)
			}
			statuses[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("registrations", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i, role := range registration.Roles {
						st := statuses[i]
						e.Obj(func(e *jx.Encoder) {
							str(e, "role", string(role))
							str(e, "status", string(st))
							e.Field("canAccessDashboard", func(e *jx.Encoder) { e.Bool(st.CanAccessDashboard()) })
							e.Field("canSubmitApplication", func(e *jx.Encoder) { e.Bool(st.CanSubmitApplication()) })
						})
					}
				})
			})
		})
	})
}
