package preview

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Seller key prefixes. The two key forms start with different bytes, so an
// ID key never equals a name and telephone key.
const (
	idKeyPrefix       = "\x1e"
	fallbackKeyPrefix = "\x1f"
)

// Key returns the grouping identity of the seller. The server-provided ID
// wins; without one, sellers with identical store name and telephone are
// indistinguishable and share a key.
func (s Seller) Key() string {
	if s.ID != "" {
		return idKeyPrefix + s.ID
	}
	// Length-prefixed so the boundary between name and telephone is unambiguous.
	return fallbackKeyPrefix + strconv.Itoa(len(s.StoreName)) + ":" + s.StoreName + s.Telephone
}

// SellerGroup is the per-seller breakdown of a preview.
type SellerGroup struct {
	Key      string
	Seller   Seller
	Items    []LineItem
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
}

// Aggregate sums line item subtotals and charges shippingFeePerSeller once
// for every distinct seller. The result does not depend on item order.
func Aggregate(items []LineItem, shippingFeePerSeller decimal.Decimal) Totals {
	productTotal := decimal.Zero
	shippingTotal := decimal.Zero
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		productTotal = productTotal.Add(item.Summary.Subtotal)

		key := item.Seller.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		shippingTotal = shippingTotal.Add(shippingFeePerSeller)
	}

	return Totals{
		ProductTotal:  productTotal,
		ShippingTotal: shippingTotal,
		GrandTotal:    productTotal.Add(shippingTotal),
	}
}

// GroupBySeller splits items into per-seller groups ordered by the first
// appearance of each seller. Every group carries exactly one shipping fee.
func GroupBySeller(items []LineItem, shippingFeePerSeller decimal.Decimal) []SellerGroup {
	var groups []SellerGroup
	index := make(map[string]int, len(items))

	for _, item := range items {
		key := item.Seller.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SellerGroup{
				Key:      key,
				Seller:   item.Seller,
				Subtotal: decimal.Zero,
				Shipping: shippingFeePerSeller,
			})
		}
		g := &groups[i]
		g.Items = append(g.Items, item)
		g.Subtotal = g.Subtotal.Add(item.Summary.Subtotal)
	}

	return groups
}
