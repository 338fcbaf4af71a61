package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan StringArray: %v", value)
	}
	return json.Unmarshal(bytes, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// ItemTopping is a topping attached to a sold line, with its own sub-quantity.
type ItemTopping struct {
	ToppingID   int64  `json:"topping_id"`
	ToppingName string `json:"topping_name"`
	Price       string `json:"price"`
	Quantity    int32  `json:"quantity"`
}

// SaleItem is the JSON snapshot of one line as embedded on pedidos and ventas.
type SaleItem struct {
	ProductID  int64               `json:"product_id"`
	Name       string              `json:"name"`
	Quantity   int32               `json:"quantity"`
	UnitPrice  string              `json:"unit_price"`
	LineTotal  string              `json:"line_total"`
	Toppings   []ItemTopping       `json:"toppings,omitempty"`
	Variations map[string][]string `json:"variations,omitempty"`
	Note       string              `json:"note,omitempty"`
}

type SaleItems []SaleItem

func (s *SaleItems) Scan(value interface{}) error {
	if value == nil {
		*s = SaleItems{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan SaleItems: %v", value)
	}
	return json.Unmarshal(bytes, s)
}

func (s SaleItems) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// VariationGroup is a product-defined option group chosen at add-to-cart time.
// SelectionType is one of "single", "multi", "boolean".
type VariationGroup struct {
	Name          string   `json:"name"`
	SelectionType string   `json:"selection_type"`
	Required      bool     `json:"required"`
	Options       []string `json:"options,omitempty"`
}

type VariationGroups []VariationGroup

func (v *VariationGroups) Scan(value interface{}) error {
	if value == nil {
		*v = VariationGroups{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan VariationGroups: %v", value)
	}
	return json.Unmarshal(bytes, v)
}

func (v VariationGroups) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	return json.Marshal(v)
}

// DiscountDetail records the discount applied at checkout.
// Scope is "total" or "items"; Kind is "percentage" or "fixed".
type DiscountDetail struct {
	Scope     string  `json:"scope"`
	Kind      string  `json:"kind"`
	Magnitude string  `json:"value"`
	ItemIndex []int   `json:"item_index,omitempty"`
	Amount    string  `json:"amount"`
	Reason    *string `json:"reason,omitempty"`
}

func (d *DiscountDetail) Scan(value interface{}) error {
	if value == nil {
		*d = DiscountDetail{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan DiscountDetail: %v", value)
	}
	return json.Unmarshal(bytes, d)
}

func (d DiscountDetail) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// PaymentBreakdown carries the composite detail for mixed payments and the
// tendered/change pair for cash.
type PaymentBreakdown struct {
	MethodA  string `json:"method_a,omitempty"`
	AmountA  string `json:"amount_a,omitempty"`
	MethodB  string `json:"method_b,omitempty"`
	AmountB  string `json:"amount_b,omitempty"`
	Tendered string `json:"tendered,omitempty"`
	Change   string `json:"change,omitempty"`
}

func (p *PaymentBreakdown) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentBreakdown{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan PaymentBreakdown: %v", value)
	}
	return json.Unmarshal(bytes, p)
}

func (p PaymentBreakdown) Value() (driver.Value, error) {
	return json.Marshal(p)
}
