// Package cli renders storefront data for the terminal and drives the
// interactive checkout.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/digitaltumana/storefront/internal/domain/catalog"
	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/domain/preview"
	"github.com/digitaltumana/storefront/internal/domain/registration"
)

func peso(d decimal.Decimal) string {
	return "₱" + d.StringFixed(2)
}

// RenderSummary prints the order preview grouped by seller followed by the
// totals.
func RenderSummary(out io.Writer, sum *checkout.Summary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if a := sum.Preview.DeliveryTo; a != nil {
		fmt.Fprintf(tw, "Deliver to:\t%s\t%s\n", a.FullName, a.Phone)
		fmt.Fprintf(tw, "\t%s\n", joinNonEmpty(a.Street, a.Barangay, a.City, a.Province, a.Region, a.PostalCode))
		fmt.Fprintln(tw)
	}

	for _, g := range sum.Groups {
		fmt.Fprintf(tw, "%s\t%s\t\t\n", sellerLabel(g.Seller), g.Seller.Region)
		for _, it := range g.Items {
			fmt.Fprintf(tw, "  %s\t%d %s\t× %s\t%s\n",
				it.Product.Name, it.Product.Quantity, it.Product.Unit,
				peso(it.Product.Price), peso(it.Summary.Subtotal))
		}
		fmt.Fprintf(tw, "  Shipping\t\t\t%s\n", peso(g.Shipping))
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Products\t\t\t%s\n", peso(sum.Totals.ProductTotal))
	fmt.Fprintf(tw, "Shipping (%d × %s)\t\t\t%s\n", len(sum.Groups), peso(sum.ShippingFeePerSeller), peso(sum.Totals.ShippingTotal))
	fmt.Fprintf(tw, "Total\t\t\t%s\n", peso(sum.Totals.GrandTotal))
	return tw.Flush()
}

// RenderConfirmation prints the outcome of a successful checkout.
func RenderConfirmation(out io.Writer, c *checkout.Confirmation) error {
	msg := c.Message
	if msg == "" {
		msg = "Order placed"
	}
	if c.OrderID != "" {
		msg += " (order " + c.OrderID + ")"
	}
	_, err := fmt.Fprintln(out, msg)
	return err
}

// RenderRegistrations prints one line per role.
func RenderRegistrations(out io.Writer, roles []registration.Role, statuses []registration.Status) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tSTATUS\tDASHBOARD")
	for i, role := range roles {
		st := statuses[i]
		access := "-"
		switch {
		case st.CanAccessDashboard():
			access = "available"
		case st.CanSubmitApplication():
			access = "apply"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", role, st, access)
	}
	return tw.Flush()
}

// RenderProducts prints a catalog listing.
func RenderProducts(out io.Writer, products []catalog.Product) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPRICE\tSTOCK\tSTORE\tREGION")
	for _, p := range products {
		price := peso(p.Price)
		if p.Unit != "" {
			price += "/" + p.Unit
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", p.Name, p.Type, price, p.Stock, p.StoreName, p.Region)
	}
	return tw.Flush()
}

func sellerLabel(s preview.Seller) string {
	if s.StoreName == "" {
		return "Unknown seller"
	}
	return s.StoreName
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
