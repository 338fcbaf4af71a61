package pos

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func trackedLine(t *testing.T, stock string) Line {
	s := dec(t, stock)
	return Line{
		ProductID: 1,
		Name:      "Empanada",
		BasePrice: dec(t, "2500"),
		Quantity:  1,
		Stock:     &s,
	}
}

func TestAddLineMergesIdenticalSelections(t *testing.T) {
	cart := NewCart()

	line := Line{
		ProductID: 1,
		Name:      "Perro caliente",
		BasePrice: dec(t, "8000"),
		Quantity:  1,
		Toppings: []LineTopping{
			{ToppingID: 1, Name: "Tocineta", Price: dec(t, "1500"), Quantity: 2},
			{ToppingID: 2, Name: "Queso", Price: dec(t, "1000"), Quantity: 1},
		},
		Variations: map[string][]string{"Salsa": {"BBQ", "Rosada"}},
	}
	id1, err := cart.AddLine(line)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	// Same selection with toppings and variation values in another order.
	same := line
	same.Toppings = []LineTopping{
		{ToppingID: 2, Name: "Queso", Price: dec(t, "1000"), Quantity: 1},
		{ToppingID: 1, Name: "Tocineta", Price: dec(t, "1500"), Quantity: 2},
	}
	same.Variations = map[string][]string{"Salsa": {"Rosada", "BBQ"}}
	id2, err := cart.AddLine(same)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if id1 != id2 {
		t.Errorf("expected merge into line %d, got new line %d", id1, id2)
	}
	if cart.Len() != 1 {
		t.Fatalf("cart has %d lines, want 1", cart.Len())
	}
	if got := cart.Lines()[0].Quantity; got != 2 {
		t.Errorf("merged quantity = %d, want 2", got)
	}
}

func TestAddLineKeepsDistinctSelectionsApart(t *testing.T) {
	cart := NewCart()

	base := Line{ProductID: 1, Name: "Arepa", BasePrice: dec(t, "4000"), Quantity: 1}
	if _, err := cart.AddLine(base); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	noted := base
	noted.Note = "sin sal"
	if _, err := cart.AddLine(noted); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	topped := base
	topped.Toppings = []LineTopping{{ToppingID: 1, Name: "Queso", Price: dec(t, "1000"), Quantity: 1}}
	if _, err := cart.AddLine(topped); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if cart.Len() != 3 {
		t.Errorf("cart has %d lines, want 3 distinct", cart.Len())
	}
}

func TestSetQuantityBeyondStockRejected(t *testing.T) {
	cart := NewCart()
	id, err := cart.AddLine(trackedLine(t, "5"))
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := cart.SetQuantity(id, 3); err != nil {
		t.Fatalf("SetQuantity(3): %v", err)
	}

	err = cart.SetQuantity(id, 6)
	if err == nil {
		t.Fatal("expected stock error for quantity 6 over stock 5")
	}
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("error type = %T, want *StockError", err)
	}

	// Prior state unchanged.
	if got := cart.Lines()[0].Quantity; got != 3 {
		t.Errorf("quantity after rejected update = %d, want 3", got)
	}
}

func TestSetQuantityBelowOneRejected(t *testing.T) {
	cart := NewCart()
	id, err := cart.AddLine(trackedLine(t, "5"))
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := cart.SetQuantity(id, 0); err == nil {
		t.Error("expected error for quantity 0")
	}
	if got := cart.Lines()[0].Quantity; got != 1 {
		t.Errorf("quantity after rejected update = %d, want 1", got)
	}
}

func TestDecrementRemovesLineAtZero(t *testing.T) {
	cart := NewCart()
	id, err := cart.AddLine(trackedLine(t, "5"))
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := cart.Increment(id); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := cart.Decrement(id); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if cart.Len() != 1 {
		t.Fatalf("cart has %d lines, want 1", cart.Len())
	}
	if err := cart.Decrement(id); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if cart.Len() != 0 {
		t.Errorf("cart has %d lines after final decrement, want 0", cart.Len())
	}
}

func TestIncrementRespectsStock(t *testing.T) {
	cart := NewCart()
	line := trackedLine(t, "1")
	id, err := cart.AddLine(line)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := cart.Increment(id); err == nil {
		t.Error("expected stock error on increment past tracked stock")
	}
}

func TestUntrackedStockUnlimited(t *testing.T) {
	cart := NewCart()
	service := Line{ProductID: 9, Name: "Domicilio", BasePrice: dec(t, "5000"), Quantity: 1}
	id, err := cart.AddLine(service)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := cart.SetQuantity(id, 500); err != nil {
		t.Errorf("untracked item should accept any quantity: %v", err)
	}
}

func TestCartSubtotalTracksLines(t *testing.T) {
	cart := NewCart()
	if _, err := cart.AddLine(Line{ProductID: 1, Name: "A", BasePrice: dec(t, "1000"), Quantity: 2}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := cart.AddLine(Line{ProductID: 2, Name: "B", BasePrice: dec(t, "500"), Quantity: 1}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if got := cart.Subtotal(); !got.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("subtotal = %s, want 2500", got)
	}

	cart.Clear()
	if cart.Len() != 0 || !cart.Subtotal().IsZero() {
		t.Error("cart not empty after Clear")
	}
}

func TestCheckToppingStockSumsMergedConsumption(t *testing.T) {
	toppingStock := dec(t, "5")
	line := Line{
		ProductID: 1,
		Name:      "Perro caliente",
		BasePrice: dec(t, "8000"),
		Quantity:  2,
		Toppings: []LineTopping{
			{ToppingID: 1, Name: "Tocineta", Price: dec(t, "1500"), Quantity: 2, Stock: &toppingStock},
		},
	}

	cart := NewCart()
	if _, err := cart.AddLine(line); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	// 2x2 = 4 of 5: fine on its own.
	if err := CheckToppingStock(cart.Lines()); err != nil {
		t.Fatalf("CheckToppingStock: %v", err)
	}

	// Identical selection merges to quantity 3; consumption becomes 2x3 = 6.
	again := line
	again.Quantity = 1
	if _, err := cart.AddLine(again); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if cart.Len() != 1 {
		t.Fatalf("cart has %d lines, want merged 1", cart.Len())
	}

	err := CheckToppingStock(cart.Lines())
	if err == nil {
		t.Fatal("merged topping consumption above stock accepted")
	}
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("error type = %T, want *StockError", err)
	}
	if !stockErr.Requested.Equal(dec(t, "6")) || !stockErr.Available.Equal(toppingStock) {
		t.Errorf("StockError = %s of %s, want 6 of 5", stockErr.Requested, stockErr.Available)
	}
}

func TestCheckToppingStockAggregatesAcrossLines(t *testing.T) {
	toppingStock := dec(t, "3")
	topping := LineTopping{ToppingID: 1, Name: "Queso", Price: dec(t, "1000"), Quantity: 2, Stock: &toppingStock}

	// Distinct lines (different notes) sharing one tracked topping.
	lines := []Line{
		{ProductID: 1, Name: "Arepa", BasePrice: dec(t, "4000"), Quantity: 1, Toppings: []LineTopping{topping}},
		{ProductID: 1, Name: "Arepa", BasePrice: dec(t, "4000"), Quantity: 1, Note: "sin sal", Toppings: []LineTopping{topping}},
	}

	if err := CheckToppingStock(lines[:1]); err != nil {
		t.Fatalf("single line should pass: %v", err)
	}
	if err := CheckToppingStock(lines); err == nil {
		t.Error("combined consumption 4 of 3 accepted")
	}
}

func TestValidateSelections(t *testing.T) {
	rules := []VariationRule{
		{Name: "Tamaño", SelectionType: "single", Required: true, Options: []string{"Pequeño", "Grande"}},
		{Name: "Adiciones", SelectionType: "multi", Options: []string{"Queso", "Tocineta"}},
	}

	if err := ValidateSelections(rules, map[string][]string{"Tamaño": {"Grande"}}); err != nil {
		t.Errorf("valid selection rejected: %v", err)
	}
	if err := ValidateSelections(rules, nil); err == nil {
		t.Error("missing required selection accepted")
	}
	if err := ValidateSelections(rules, map[string][]string{"Tamaño": {"Pequeño", "Grande"}}); err == nil {
		t.Error("multiple values on single-select accepted")
	}
	if err := ValidateSelections(rules, map[string][]string{"Tamaño": {"Mediano"}}); err == nil {
		t.Error("unknown option accepted")
	}
	if err := ValidateSelections(rules, map[string][]string{
		"Tamaño":    {"Grande"},
		"Adiciones": {"Queso", "Tocineta"},
	}); err != nil {
		t.Errorf("valid multi selection rejected: %v", err)
	}
}
