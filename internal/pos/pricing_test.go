package pos

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func burgerLine(t *testing.T) Line {
	return Line{
		ProductID: 1,
		Name:      "Hamburguesa",
		BasePrice: dec(t, "10000"),
		Quantity:  2,
		Toppings: []LineTopping{
			{ToppingID: 10, Name: "Queso", Price: dec(t, "2000"), Quantity: 1},
		},
	}
}

func TestUnitPriceIncludesToppings(t *testing.T) {
	line := burgerLine(t)
	if got := line.UnitPrice(); !got.Equal(dec(t, "12000")) {
		t.Errorf("UnitPrice = %s, want 12000", got)
	}
	if got := line.Total(); !got.Equal(dec(t, "24000")) {
		t.Errorf("Total = %s, want 24000", got)
	}
}

func TestCartSubtotalScenario(t *testing.T) {
	// (10000 + 2000x1) x 2 = 24000
	subtotal := CartSubtotal([]Line{burgerLine(t)})
	if !subtotal.Equal(dec(t, "24000")) {
		t.Errorf("subtotal = %s, want 24000", subtotal)
	}
}

func TestPercentageDiscountOnTotal(t *testing.T) {
	lines := []Line{burgerLine(t)}
	subtotal := CartSubtotal(lines)

	amount, err := DiscountAmount(subtotal, lines, Discount{
		Scope: DiscountScopeTotal,
		Kind:  DiscountPercentage,
		Value: dec(t, "10"),
	})
	if err != nil {
		t.Fatalf("DiscountAmount: %v", err)
	}
	if !amount.Equal(dec(t, "2400")) {
		t.Errorf("discount = %s, want 2400", amount)
	}

	total := GrandTotal(subtotal, amount)
	if !total.Equal(dec(t, "21600")) {
		t.Errorf("total = %s, want 21600", total)
	}
}

func TestPercentageDiscountNeverExceedsSubtotal(t *testing.T) {
	lines := []Line{burgerLine(t)}
	subtotal := CartSubtotal(lines)

	amount, err := DiscountAmount(subtotal, lines, Discount{
		Scope: DiscountScopeTotal,
		Kind:  DiscountPercentage,
		Value: dec(t, "100"),
	})
	if err != nil {
		t.Fatalf("DiscountAmount: %v", err)
	}
	if amount.GreaterThan(subtotal) {
		t.Errorf("discount %s exceeds subtotal %s", amount, subtotal)
	}

	if _, err := DiscountAmount(subtotal, lines, Discount{
		Scope: DiscountScopeTotal,
		Kind:  DiscountPercentage,
		Value: dec(t, "101"),
	}); err == nil {
		t.Error("expected error for percentage above 100")
	}
}

func TestFixedDiscountCappedAtSubtotal(t *testing.T) {
	lines := []Line{burgerLine(t)}
	subtotal := CartSubtotal(lines)

	amount, err := DiscountAmount(subtotal, lines, Discount{
		Scope: DiscountScopeTotal,
		Kind:  DiscountFixed,
		Value: dec(t, "99999"),
	})
	if err != nil {
		t.Fatalf("DiscountAmount: %v", err)
	}
	if !amount.Equal(subtotal) {
		t.Errorf("discount = %s, want capped at subtotal %s", amount, subtotal)
	}

	if total := GrandTotal(subtotal, amount); total.IsNegative() {
		t.Errorf("GrandTotal went negative: %s", total)
	}
}

func TestNegativeDiscountRejected(t *testing.T) {
	lines := []Line{burgerLine(t)}
	if _, err := DiscountAmount(CartSubtotal(lines), lines, Discount{
		Scope: DiscountScopeTotal,
		Kind:  DiscountFixed,
		Value: dec(t, "-500"),
	}); err == nil {
		t.Error("expected error for negative discount")
	}
}

func TestItemScopedDiscounts(t *testing.T) {
	cheap := Line{ProductID: 2, Name: "Gaseosa", BasePrice: dec(t, "3000"), Quantity: 1}
	lines := []Line{burgerLine(t), cheap}
	subtotal := CartSubtotal(lines)

	// 50% off the drink only.
	amount, err := DiscountAmount(subtotal, lines, Discount{
		Scope:     DiscountScopeItems,
		Kind:      DiscountPercentage,
		Value:     dec(t, "50"),
		ItemIndex: []int{1},
	})
	if err != nil {
		t.Fatalf("DiscountAmount: %v", err)
	}
	if !amount.Equal(dec(t, "1500")) {
		t.Errorf("discount = %s, want 1500", amount)
	}

	// Fixed split across two lines, each share capped at its line total.
	amount, err = DiscountAmount(subtotal, lines, Discount{
		Scope:     DiscountScopeItems,
		Kind:      DiscountFixed,
		Value:     dec(t, "10000"),
		ItemIndex: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("DiscountAmount: %v", err)
	}
	// 5000 from the burger line, 3000 (capped) from the drink.
	if !amount.Equal(dec(t, "8000")) {
		t.Errorf("discount = %s, want 8000", amount)
	}

	if _, err := DiscountAmount(subtotal, lines, Discount{
		Scope:     DiscountScopeItems,
		Kind:      DiscountFixed,
		Value:     dec(t, "100"),
		ItemIndex: []int{5},
	}); err == nil {
		t.Error("expected error for out-of-range line index")
	}
}

func TestChangeFor(t *testing.T) {
	total := dec(t, "21600")

	change, err := ChangeFor(total, dec(t, "25000"))
	if err != nil {
		t.Fatalf("ChangeFor: %v", err)
	}
	if !change.Equal(dec(t, "3400")) {
		t.Errorf("change = %s, want 3400", change)
	}

	if _, err := ChangeFor(total, dec(t, "20000")); err == nil {
		t.Error("expected error for tendered below total")
	}
}

func TestTaxAmount(t *testing.T) {
	tax := TaxAmount(dec(t, "24000"), dec(t, "8"))
	if !tax.Equal(dec(t, "1920")) {
		t.Errorf("tax = %s, want 1920", tax)
	}
}

func TestFormatCOP(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"21600", "$ 21.600"},
		{"1000000", "$ 1.000.000"},
		{"950", "$ 950"},
		{"0", "$ 0"},
		{"21600.49", "$ 21.600"},
		{"-3400", "-$ 3.400"},
	}
	for _, tc := range cases {
		if got := FormatCOP(dec(t, tc.in)); got != tc.want {
			t.Errorf("FormatCOP(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
