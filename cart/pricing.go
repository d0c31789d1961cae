package cart

import (
	"github.com/shopspring/decimal"

	"go-storefront/models"
)

var (
	// ShippingEstimate is the flat shipping charged on a non-empty cart.
	ShippingEstimate = decimal.RequireFromString("50.00")

	hundred = decimal.NewFromInt(100)
)

// Line is one product's contribution to the cart totals, derived from the cart state and
// fresh catalog data on every read.
type Line struct {
	Product      models.Product
	Quantity     int
	BasePrice    decimal.Decimal
	UnitPrice    decimal.Decimal
	BaseSubtotal decimal.Decimal
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
}

// Totals aggregates a set of lines.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Shipping      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// round2 rounds half away from zero, which is half-up for the non-negative amounts priced here.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidDiscount reports whether d is a usable discount percentage, between 0 and 100.
func ValidDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}

// DiscountedUnitPrice returns the sale price of p rounded to cents.
func DiscountedUnitPrice(p models.Product) decimal.Decimal {
	if p.Discount.IsPositive() {
		factor := decimal.NewFromInt(1).Sub(p.Discount.Div(hundred))
		return round2(p.Price.Mul(factor))
	}
	return round2(p.Price)
}

// ComputeLines prices every cart entry whose product is present in products.
// Entries whose product has since been deleted are skipped without notice.
func ComputeLines(state State, products []models.Product) []Line {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(state))
	for id, qty := range state.Items() {
		p, ok := byID[id]
		if !ok || qty <= 0 {
			continue
		}
		n := decimal.NewFromInt(int64(qty))
		unit := DiscountedUnitPrice(p)
		base := round2(p.Price.Mul(n))
		sub := round2(unit.Mul(n))
		lines = append(lines, Line{
			Product:      p,
			Quantity:     qty,
			BasePrice:    p.Price,
			UnitPrice:    unit,
			BaseSubtotal: base,
			Subtotal:     sub,
			Discount:     round2(decimal.Max(base.Sub(sub), decimal.Zero)),
		})
	}
	return lines
}

// ComputeTotals sums lines into the cart totals. Shipping only applies to a non-empty cart.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
		discount = discount.Add(decimal.Max(l.Discount, decimal.Zero))
	}

	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = ShippingEstimate
	}
	subtotal = round2(subtotal)
	return Totals{
		Subtotal:      subtotal,
		DiscountTotal: round2(discount),
		Shipping:      round2(shipping),
		GrandTotal:    round2(subtotal.Add(shipping)),
	}
}

// OrderItems snapshots lines into order items and returns their total without shipping.
func OrderItems(lines []Line) ([]models.OrderItem, decimal.Decimal) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		items = append(items, models.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
		total = total.Add(l.Subtotal)
	}
	return items, round2(total)
}
