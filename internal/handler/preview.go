package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// CartPreview returns the shopper's cart grouped by seller with the derived
// totals.
func (h *Handler) CartPreview(w http.ResponseWriter, r *http.Request) {
	s, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := h.newFlow(r, s).Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSummary(e, sum) })
}
