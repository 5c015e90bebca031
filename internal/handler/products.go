package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/digitaltumana/storefront/internal/domain/catalog"
)

// Products lists the catalog filtered by q, type and region. shuffle=true
// randomizes the order, as the landing page does.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	s, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	all, err := h.api.Products(r.Context(), s)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	products := catalog.Filter(all, catalog.Query{
		Text:   q.Get("q"),
		Type:   q.Get("type"),
		Region: q.Get("region"),
	})
	if q.Get("shuffle") == "true" {
		products = catalog.Shuffle(products, h.newRand())
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range products {
						encodeProduct(e, p)
					}
				})
			})
			e.Field("count", func(e *jx.Encoder) { e.Int(len(products)) })
		})
	})
}
