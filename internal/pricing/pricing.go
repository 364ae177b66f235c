// Package pricing holds the pure cart arithmetic: row identity, selection
// descriptions and price computation. No I/O happens here.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
)

// ResolveRowID derives the identity of a cart row. A server-issued cart item
// id wins; otherwise the product id alone identifies the row, disambiguated
// by the variant signature when one is present.
func ResolveRowID(cartItemID, productID, variantSignature string) string {
	if id := strings.TrimSpace(cartItemID); id != "" {
		return id
	}
	if variantSignature == "" {
		return productID
	}
	return productID + "|" + variantSignature
}

// DescribeSelection renders the human-readable option summary for a row:
// "Size: <v>" first when a size is selected, then each attribute as
// "<name>: <label>", joined by " | ". Empty when nothing is selected.
func DescribeSelection(size string, attrs []domain.SelectedAttribute) string {
	parts := make([]string, 0, len(attrs)+1)
	if strings.TrimSpace(size) != "" {
		parts = append(parts, "Size: "+size)
	}
	for _, a := range attrs {
		if a.Name == "" && a.Label == "" {
			continue
		}
		parts = append(parts, a.Name+": "+a.Label)
	}
	return strings.Join(parts, " | ")
}

// ParseAmount parses a decimal-string amount from the wire. Missing or
// malformed values coerce to zero rather than failing the whole cart.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// LineTotal is unitPrice * quantity, kept exact. Rounding to two decimal
// places happens only at presentation or submission time so repeated
// recomputation cannot compound rounding error.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Subtotal sums the exact line totals of every row.
func Subtotal(rows []domain.CartRow) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(LineTotal(row.UnitPrice, row.Quantity))
	}
	return sum
}

// Total is subtotal plus the fixed tax and shipping amounts. It is always a
// projection of the rows it derives from, never stored.
func Total(rows []domain.CartRow, tax, shipping decimal.Decimal) decimal.Decimal {
	return Subtotal(rows).Add(tax).Add(shipping)
}
