package preview

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedPreview is returned when a preview payload is missing its
// items or delivery address.
var ErrMalformedPreview = errors.New("malformed order preview")

// Product is the product snapshot carried by a line item.
type Product struct {
	ID       string
	Name     string
	Type     string
	Unit     string
	Price    decimal.Decimal
	Quantity int
}

// Seller identifies the store that fulfils a line item.
type Seller struct {
	// ID is the opaque seller identifier. Older backends omit it.
	ID        string
	StoreName string
	Telephone string
	Region    string
	Email     string
}

// Summary holds the server-computed amounts of a single line item.
type Summary struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// LineItem is one product entry of a cart preview.
type LineItem struct {
	Product Product
	Seller  Seller
	Summary Summary
}

// Address is the delivery destination of an order.
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Region     string `json:"region"`
	Province   string `json:"province"`
	City       string `json:"city"`
	Barangay   string `json:"barangay"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
}

// OrderPreview is a read-only snapshot of the cart and delivery destination.
type OrderPreview struct {
	Items      []LineItem `json:"items" validate:"required"`
	DeliveryTo *Address   `json:"deliveryTo" validate:"required"`
}

// Totals holds the amounts derived from a set of line items.
type Totals struct {
	ProductTotal  decimal.Decimal
	ShippingTotal decimal.Decimal
	GrandTotal    decimal.Decimal
}
