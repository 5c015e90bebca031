package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/digitaltumana/storefront/internal/domain/catalog"
	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/domain/preview"
)

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Float64(d.InexactFloat64())
}

func str(e *jx.Encoder, name, v string) {
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func encodeSeller(e *jx.Encoder, s preview.Seller) {
	e.Obj(func(e *jx.Encoder) {
		if s.ID != "" {
			str(e, "id", s.ID)
		}
		str(e, "storeName", s.StoreName)
		str(e, "telephone", s.Telephone)
		str(e, "region", s.Region)
		str(e, "email", s.Email)
	})
}

func encodeLineItem(e *jx.Encoder, it preview.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				str(e, "id", it.Product.ID)
				str(e, "name", it.Product.Name)
				str(e, "type", it.Product.Type)
				str(e, "unit", it.Product.Unit)
				e.Field("price", func(e *jx.Encoder) { money(e, it.Product.Price) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Product.Quantity) })
			})
		})
		e.Field("seller", func(e *jx.Encoder) { encodeSeller(e, it.Seller) })
		e.Field("summary", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("subtotal", func(e *jx.Encoder) { money(e, it.Summary.Subtotal) })
				e.Field("total", func(e *jx.Encoder) { money(e, it.Summary.Total) })
			})
		})
	})
}

func encodeAddress(e *jx.Encoder, a *preview.Address) {
	if a == nil {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		str(e, "fullName", a.FullName)
		str(e, "phone", a.Phone)
		str(e, "region", a.Region)
		str(e, "province", a.Province)
		str(e, "city", a.City)
		str(e, "barangay", a.Barangay)
		str(e, "street", a.Street)
		str(e, "postalCode", a.PostalCode)
	})
}

func encodeTotals(e *jx.Encoder, t preview.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productTotal", func(e *jx.Encoder) { money(e, t.ProductTotal) })
		e.Field("shippingTotal", func(e *jx.Encoder) { money(e, t.ShippingTotal) })
		e.Field("grandTotal", func(e *jx.Encoder) { money(e, t.GrandTotal) })
	})
}

func encodeSummary(e *jx.Encoder, s *checkout.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range s.Preview.Items {
					encodeLineItem(e, it)
				}
			})
		})
		e.Field("deliveryTo", func(e *jx.Encoder) { encodeAddress(e, s.Preview.DeliveryTo) })
		e.Field("groups", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, g := range s.Groups {
					e.Obj(func(e *jx.Encoder) {
						e.Field("seller", func(e *jx.Encoder) { encodeSeller(e, g.Seller) })
						e.Field("itemCount", func(e *jx.Encoder) { e.Int(len(g.Items)) })
						e.Field("subtotal", func(e *jx.Encoder) { money(e, g.Subtotal) })
						e.Field("shipping", func(e *jx.Encoder) { money(e, g.Shipping) })
					})
				}
			})
		})
		e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, s.Totals) })
		e.Field("shippingFeePerSeller", func(e *jx.Encoder) { money(e, s.ShippingFeePerSeller) })
	})
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", p.ID)
		str(e, "name", p.Name)
		str(e, "type", p.Type)
		str(e, "unit", p.Unit)
		e.Field("price", func(e *jx.Encoder) { money(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		str(e, "storeName", p.StoreName)
		str(e, "region", p.Region)
	})
}

func encodeAttempt(e *jx.Encoder, a checkout.Attempt) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", a.ID)
		str(e, "outcome", string(a.Outcome))
		e.Field("sellerCount", func(e *jx.Encoder) { e.Int(a.SellerCount) })
		e.Field("grandTotal", func(e *jx.Encoder) { money(e, a.GrandTotal) })
		if a.OrderID != "" {
			str(e, "orderId", a.OrderID)
		}
		if a.Error != "" {
			str(e, "error", a.Error)
		}
		str(e, "createdAt", a.CreatedAt.UTC().Format(time.RFC3339))
	})
}
