package pos

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Discount scopes and kinds.
const (
	DiscountScopeTotal = "total"
	DiscountScopeItems = "items"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type LineTopping struct {
	ToppingID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int32
	Stock     *decimal.Decimal // nil = untracked
}

// Line is one cart line: a product with attached toppings, variation
// selections and a free-text note.
type Line struct {
	LineID     int64
	ProductID  int64
	Name       string
	BasePrice  decimal.Decimal
	Quantity   int32
	Stock      *decimal.Decimal // nil = untracked (service-type item)
	Toppings   []LineTopping
	Variations map[string][]string
	Note       string
}

// UnitPrice is base price plus topping surcharges.
func (l Line) UnitPrice() decimal.Decimal {
	price := l.BasePrice
	for _, t := range l.Toppings {
		price = price.Add(t.Price.Mul(decimal.NewFromInt32(t.Quantity)))
	}
	return price
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt32(l.Quantity))
}

type Discount struct {
	Scope     string
	Kind      string
	Value     decimal.Decimal
	ItemIndex []int // line indices, only for DiscountScopeItems
}

func CartSubtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	return subtotal
}

// DiscountAmount computes the deducted amount for a discount, never more
// than the subtotal it applies to.
func DiscountAmount(subtotal decimal.Decimal, lines []Line, d Discount) (decimal.Decimal, error) {
	if d.Value.IsNegative() {
		return decimal.Zero, fmt.Errorf("discount value must not be negative")
	}

	switch d.Scope {
	case DiscountScopeTotal:
		switch d.Kind {
		case DiscountPercentage:
			if d.Value.GreaterThan(decimal.NewFromInt(100)) {
				return decimal.Zero, fmt.Errorf("percentage discount must not exceed 100")
			}
			amount := subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
			if amount.GreaterThan(subtotal) {
				amount = subtotal
			}
			return amount, nil
		case DiscountFixed:
			if d.Value.GreaterThan(subtotal) {
				return subtotal, nil
			}
			return d.Value, nil
		}
		return decimal.Zero, fmt.Errorf("unknown discount kind: %s", d.Kind)

	case DiscountScopeItems:
		if len(d.ItemIndex) == 0 {
			return decimal.Zero, fmt.Errorf("item discount requires at least one line")
		}
		var flagged []decimal.Decimal
		flaggedSubtotal := decimal.Zero
		for _, idx := range d.ItemIndex {
			if idx < 0 || idx >= len(lines) {
				return decimal.Zero, fmt.Errorf("discount references line %d which does not exist", idx)
			}
			lineTotal := lines[idx].Total()
			flagged = append(flagged, lineTotal)
			flaggedSubtotal = flaggedSubtotal.Add(lineTotal)
		}

		switch d.Kind {
		case DiscountPercentage:
			if d.Value.GreaterThan(decimal.NewFromInt(100)) {
				return decimal.Zero, fmt.Errorf("percentage discount must not exceed 100")
			}
			amount := flaggedSubtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
			if amount.GreaterThan(flaggedSubtotal) {
				amount = flaggedSubtotal
			}
			return amount, nil
		case DiscountFixed:
			// Fixed amount split evenly across flagged lines, each share
			// capped at its own line subtotal.
			share := d.Value.Div(decimal.NewFromInt(int64(len(flagged))))
			amount := decimal.Zero
			for _, lineTotal := range flagged {
				if share.GreaterThan(lineTotal) {
					amount = amount.Add(lineTotal)
				} else {
					amount = amount.Add(share)
				}
			}
			return amount, nil
		}
		return decimal.Zero, fmt.Errorf("unknown discount kind: %s", d.Kind)
	}
	return decimal.Zero, fmt.Errorf("unknown discount scope: %s", d.Scope)
}

// GrandTotal is subtotal minus discount, floored at zero.
func GrandTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// TaxAmount is additive IVA for restaurant mode.
func TaxAmount(subtotal, ivaPercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ivaPercent).Div(decimal.NewFromInt(100))
}

// ChangeFor computes cash change. Tendered below the total is rejected.
func ChangeFor(total, tendered decimal.Decimal) (decimal.Decimal, error) {
	if tendered.LessThan(total) {
		return decimal.Zero, fmt.Errorf("tendered amount must be >= total (%s)", FormatCOP(total))
	}
	return tendered.Sub(total), nil
}

// FormatCOP renders a monetary amount at whole-currency-unit granularity
// with dot thousands separators, e.g. "$ 21.600".
func FormatCOP(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	neg := whole < 0
	if neg {
		whole = -whole
	}

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := "$ " + strings.Join(groups, ".")
	if neg {
		out = "-" + out
	}
	return out
}
