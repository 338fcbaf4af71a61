package pos

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// StockError reports a quantity exceeding tracked stock for a named item.
type StockError struct {
	Name      string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, available %s",
		e.Name, e.Requested.String(), e.Available.String())
}

// Cart is the in-memory pending selection before a sale is recorded.
// Lines keep insertion order; identical selections merge into one line.
type Cart struct {
	lines  []Line
	nextID int64
}

func NewCart() *Cart {
	return &Cart{nextID: 1}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Subtotal() decimal.Decimal {
	return CartSubtotal(c.lines)
}

// AddLine merges into an existing line when product, topping multiset and
// variation selections match order-insensitively, otherwise appends. The
// free-text note is part of the line identity too, so a differently noted
// line never merges and its note is never lost.
func (c *Cart) AddLine(line Line) (int64, error) {
	if line.Quantity < 1 {
		return 0, fmt.Errorf("quantity must be at least 1")
	}

	for i := range c.lines {
		if sameSelection(c.lines[i], line) {
			merged := c.lines[i].Quantity + line.Quantity
			if err := checkStock(c.lines[i], merged); err != nil {
				return 0, err
			}
			c.lines[i].Quantity = merged
			return c.lines[i].LineID, nil
		}
	}

	if err := checkStock(line, line.Quantity); err != nil {
		return 0, err
	}
	line.LineID = c.nextID
	c.nextID++
	c.lines = append(c.lines, line)
	return line.LineID, nil
}

// Increment raises the line quantity by one, subject to tracked stock.
func (c *Cart) Increment(lineID int64) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return fmt.Errorf("line %d not found", lineID)
	}
	if err := checkStock(c.lines[idx], c.lines[idx].Quantity+1); err != nil {
		return err
	}
	c.lines[idx].Quantity++
	return nil
}

// Decrement lowers the line quantity by one, removing the line at zero.
func (c *Cart) Decrement(lineID int64) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return fmt.Errorf("line %d not found", lineID)
	}
	c.lines[idx].Quantity--
	if c.lines[idx].Quantity <= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
	return nil
}

// SetQuantity validates n >= 1 and n within tracked stock; on violation the
// prior quantity is kept and the error surfaced.
func (c *Cart) SetQuantity(lineID int64, n int32) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return fmt.Errorf("line %d not found", lineID)
	}
	if n < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if err := checkStock(c.lines[idx], n); err != nil {
		return err
	}
	c.lines[idx].Quantity = n
	return nil
}

func (c *Cart) RemoveLine(lineID int64) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return fmt.Errorf("line %d not found", lineID)
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) indexOf(lineID int64) int {
	for i := range c.lines {
		if c.lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func checkStock(line Line, quantity int32) error {
	if line.Stock == nil {
		return nil
	}
	requested := decimal.NewFromInt32(quantity)
	if requested.GreaterThan(*line.Stock) {
		return &StockError{Name: line.Name, Requested: requested, Available: *line.Stock}
	}
	return nil
}

// CheckToppingStock validates tracked topping consumption against stock,
// aggregated across all lines so repeated or merged selections cannot each
// pass an individual check while their sum exceeds what will be decremented.
func CheckToppingStock(lines []Line) error {
	consumed := make(map[int64]decimal.Decimal)
	toppings := make(map[int64]LineTopping)

	for _, line := range lines {
		qty := decimal.NewFromInt32(line.Quantity)
		for _, t := range line.Toppings {
			if t.Stock == nil {
				continue
			}
			consumed[t.ToppingID] = consumed[t.ToppingID].Add(decimal.NewFromInt32(t.Quantity).Mul(qty))
			toppings[t.ToppingID] = t
		}
	}

	for id, total := range consumed {
		t := toppings[id]
		if total.GreaterThan(*t.Stock) {
			return &StockError{Name: t.Name, Requested: total, Available: *t.Stock}
		}
	}
	return nil
}

func sameSelection(a, b Line) bool {
	if a.ProductID != b.ProductID || a.Note != b.Note {
		return false
	}
	return toppingKey(a.Toppings) == toppingKey(b.Toppings) &&
		variationKey(a.Variations) == variationKey(b.Variations)
}

func toppingKey(toppings []LineTopping) string {
	parts := make([]string, 0, len(toppings))
	for _, t := range toppings {
		parts = append(parts, fmt.Sprintf("%d:%d", t.ToppingID, t.Quantity))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func variationKey(variations map[string][]string) string {
	keys := make([]string, 0, len(variations))
	for k := range variations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := append([]string(nil), variations[k]...)
		sort.Strings(values)
		parts = append(parts, k+"="+strings.Join(values, ","))
	}
	return strings.Join(parts, "|")
}

// VariationRule mirrors a product-defined option group.
type VariationRule struct {
	Name          string
	SelectionType string // single | multi | boolean
	Required      bool
	Options       []string
}

// ValidateSelections checks variation selections against product rules:
// required groups must be chosen, single-select groups take one value, and
// values must come from the declared options.
func ValidateSelections(rules []VariationRule, selections map[string][]string) error {
	for _, rule := range rules {
		chosen := selections[rule.Name]
		if len(chosen) == 0 {
			if rule.Required {
				return fmt.Errorf("variation %q requires a selection", rule.Name)
			}
			continue
		}
		if (rule.SelectionType == "single" || rule.SelectionType == "boolean") && len(chosen) > 1 {
			return fmt.Errorf("variation %q allows only one selection", rule.Name)
		}
		if len(rule.Options) > 0 {
			for _, v := range chosen {
				if !contains(rule.Options, v) {
					return fmt.Errorf("variation %q has no option %q", rule.Name, v)
				}
			}
		}
	}
	return nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
