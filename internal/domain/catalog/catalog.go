package catalog

import (
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a marketplace listing as shown on catalog pages.
type Product struct {
	ID        string
	Name      string
	Type      string
	Unit      string
	Price     decimal.Decimal
	Stock     int
	StoreName string
	Region    string
}

// Query narrows a listing. Empty fields match everything.
type Query struct {
	Text   string
	Type   string
	Region string
}

// Filter returns the products matching q, preserving input order. Text is
// matched case-insensitively against name and store name; Type and Region
// must match exactly, ignoring case.
func Filter(products []Product, q Query) []Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Type != "" && !strings.EqualFold(p.Type, q.Type) {
			continue
		}
		if q.Region != "" && !strings.EqualFold(p.Region, q.Region) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(p.Name), text) &&
			!strings.Contains(strings.ToLower(p.StoreName), text) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Shuffle returns a uniformly shuffled copy of products.
func Shuffle(products []Product, rng *rand.Rand) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
