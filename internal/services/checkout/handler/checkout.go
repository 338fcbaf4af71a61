package handler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crece-pos/internal/database/models"
	"crece-pos/internal/pos"
	"crece-pos/internal/utils"
)

const (
	saleInsertAttempts = 3
	saleRetryBackoff   = 100 * time.Millisecond
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SaleLimitChecker gates monthly sale volume by subscription tier.
type SaleLimitChecker interface {
	CanRecordSale(ctx context.Context, organizationID int64) (bool, string, error)
}

type CheckoutHandler struct {
	db             *gorm.DB
	limits         SaleLimitChecker
	restaurantMode bool
	ivaPercent     decimal.Decimal
}

func NewCheckoutHandler(db *gorm.DB, limits SaleLimitChecker, restaurantMode bool, ivaPercent string) *CheckoutHandler {
	iva, err := decimal.NewFromString(ivaPercent)
	if err != nil {
		iva = decimal.Zero
	}
	return &CheckoutHandler{
		db:             db,
		limits:         limits,
		restaurantMode: restaurantMode,
		ivaPercent:     iva,
	}
}

// --- Requests / responses ---

type CheckoutTopping struct {
	ToppingID int64 `json:"topping_id"`
	Quantity  int32 `json:"quantity"`
}

type CheckoutLine struct {
	ProductID  int64               `json:"product_id"`
	Quantity   int32               `json:"quantity"`
	Toppings   []CheckoutTopping   `json:"toppings,omitempty"`
	Variations map[string][]string `json:"variations,omitempty"`
	Note       string              `json:"note,omitempty"`
}

type DiscountInput struct {
	Scope     string `json:"scope"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	ItemIndex []int  `json:"item_index,omitempty"`
}

type MixedPaymentInput struct {
	MethodA string `json:"method_a"`
	AmountA string `json:"amount_a"`
	MethodB string `json:"method_b"`
	AmountB string `json:"amount_b"`
}

type CheckoutRequest struct {
	Lines          []CheckoutLine     `json:"lines"`
	Discount       *DiscountInput     `json:"discount,omitempty"`
	PaymentMethod  string             `json:"payment_method"`
	TenderedAmount *string            `json:"tendered_amount,omitempty"`
	Mixed          *MixedPaymentInput `json:"mixed,omitempty"`
}

type VentaView struct {
	ID             int64                   `json:"id"`
	Code           string                  `json:"code"`
	Items          models.SaleItems        `json:"items"`
	Subtotal       string                  `json:"subtotal"`
	DiscountAmount string                  `json:"discount_amount"`
	TaxAmount      string                  `json:"tax_amount"`
	TotalAmount    string                  `json:"total_amount"`
	TotalDisplay   string                  `json:"total_display"`
	PaymentMethod  string                  `json:"payment_method"`
	Breakdown      models.PaymentBreakdown `json:"breakdown"`
	CreatedAt      time.Time               `json:"created_at"`
}

type CheckoutResponse struct {
	Success  bool       `json:"success"`
	Message  *string    `json:"message,omitempty"`
	Venta    *VentaView `json:"venta,omitempty"`
	Change   *string    `json:"change,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}


// Checkout validates the cart, records the sale and then issues best-effort
// stock decrements. The sale record is authoritative; decrement failures
// come back as warnings, never as a rollback.
func (h *CheckoutHandler) Checkout(ctx context.Context, organizationID int64, req CheckoutRequest) (*CheckoutResponse, error) {
	if len(req.Lines) == 0 {
		return &CheckoutResponse{Success: false, Message: strPtr("cart is empty")}, nil
	}
	if req.PaymentMethod == "" {
		return &CheckoutResponse{Success: false, Message: strPtr("payment_method required")}, nil
	}

	allowed, reason, err := h.limits.CanRecordSale(ctx, organizationID)
	if err != nil {
		return &CheckoutResponse{Success: false, Message: strPtr("Failed to check plan limits")}, err
	}
	if !allowed {
		return &CheckoutResponse{Success: false, Message: strPtr(reason)}, nil
	}

	cart, products, resp, err := h.buildCart(ctx, organizationID, req.Lines)
	if resp != nil || err != nil {
		return resp, err
	}

	subtotal := cart.Subtotal()

	discountAmount := decimal.Zero
	var discountDetail *models.DiscountDetail
	if req.Discount != nil {
		value, err := decimal.NewFromString(req.Discount.Value)
		if err != nil {
			return &CheckoutResponse{Success: false, Message: strPtr("Invalid discount value")}, nil
		}
		d := pos.Discount{
			Scope:     req.Discount.Scope,
			Kind:      req.Discount.Kind,
			Value:     value,
			ItemIndex: req.Discount.ItemIndex,
		}
		discountAmount, err = pos.DiscountAmount(subtotal, cart.Lines(), d)
		if err != nil {
			return &CheckoutResponse{Success: false, Message: strPtr(err.Error())}, nil
		}
		discountDetail = &models.DiscountDetail{
			Scope:     req.Discount.Scope,
			Kind:      req.Discount.Kind,
			Magnitude: req.Discount.Value,
			ItemIndex: req.Discount.ItemIndex,
			Amount:    discountAmount.StringFixed(2),
		}
	}

	taxAmount := decimal.Zero
	if h.restaurantMode && h.ivaPercent.IsPositive() {
		taxAmount = pos.TaxAmount(subtotal, h.ivaPercent)
	}

	total := pos.GrandTotal(subtotal, discountAmount).Add(taxAmount)

	breakdown, changeStr, resp := h.buildBreakdown(req, total)
	if resp != nil {
		return resp, nil
	}

	venta := models.Venta{
		OrganizationID: organizationID,
		Items:          linesToItems(cart.Lines()),
		Subtotal:       subtotal.StringFixed(2),
		DiscountAmount: discountAmount.StringFixed(2),
		TaxAmount:      taxAmount.StringFixed(2),
		TotalAmount:    total.StringFixed(2),
		Discount:       discountDetail,
		PaymentMethod:  req.PaymentMethod,
		Breakdown:      breakdown,
	}

	if err := h.insertWithCode(ctx, organizationID, &venta); err != nil {
		return &CheckoutResponse{Success: false, Message: strPtr("Failed to record sale: " + err.Error())}, err
	}

	warnings := h.decrementStock(ctx, organizationID, cart.Lines(), products)

	view := ventaToView(venta)
	out := &CheckoutResponse{
		Success:  true,
		Message:  strPtr("Sale recorded"),
		Venta:    &view,
		Warnings: warnings,
	}
	if changeStr != "" {
		out.Change = strPtr(changeStr)
	}
	return out, nil
}

// buildCart resolves catalog records, validates variations and tracked
// stock, and merges duplicate selections. A non-nil response means the
// checkout was rejected pre-flight with no side effects.
func (h *CheckoutHandler) buildCart(ctx context.Context, organizationID int64, lines []CheckoutLine) (*pos.Cart, map[int64]models.Producto, *CheckoutResponse, error) {
	cart := pos.NewCart()
	products := make(map[int64]models.Producto)

	for _, reqLine := range lines {
		if reqLine.Quantity < 1 {
			return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("quantity must be at least 1")}, nil
		}

		var product models.Producto
		if err := h.db.WithContext(ctx).
			Where("id = ? AND organization_id = ? AND is_active = ?", reqLine.ProductID, organizationID, true).
			Preload("LinkedProducts.Child").
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				msg := fmt.Sprintf("product %d not found or inactive", reqLine.ProductID)
				return nil, nil, &CheckoutResponse{Success: false, Message: strPtr(msg)}, nil
			}
			return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Database error")}, err
		}

		rules := make([]pos.VariationRule, 0, len(product.Variations))
		for _, g := range product.Variations {
			rules = append(rules, pos.VariationRule{
				Name:          g.Name,
				SelectionType: g.SelectionType,
				Required:      g.Required,
				Options:       g.Options,
			})
		}
		if err := pos.ValidateSelections(rules, reqLine.Variations); err != nil {
			return nil, nil, &CheckoutResponse{Success: false, Message: strPtr(err.Error())}, nil
		}

		basePrice, err := decimal.NewFromString(product.ProductPrice)
		if err != nil {
			return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Invalid product price for " + product.ProductName)}, nil
		}

		line := pos.Line{
			ProductID:  product.ID,
			Name:       product.ProductName,
			BasePrice:  basePrice,
			Quantity:   reqLine.Quantity,
			Variations: reqLine.Variations,
			Note:       reqLine.Note,
		}
		if product.Stock != nil {
			stock, err := decimal.NewFromString(*product.Stock)
			if err != nil {
				return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Invalid stock value for " + product.ProductName)}, nil
			}
			line.Stock = &stock
		}

		for _, reqTopping := range reqLine.Toppings {
			var topping models.Topping
			if err := h.db.WithContext(ctx).
				Where("id = ? AND organization_id = ? AND is_active = ?", reqTopping.ToppingID, organizationID, true).
				First(&topping).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					msg := fmt.Sprintf("topping %d not found or inactive", reqTopping.ToppingID)
					return nil, nil, &CheckoutResponse{Success: false, Message: strPtr(msg)}, nil
				}
				return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Database error")}, err
			}

			price, err := decimal.NewFromString(topping.Price)
			if err != nil {
				return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Invalid topping price for " + topping.ToppingName)}, nil
			}

			lt := pos.LineTopping{
				ToppingID: topping.ID,
				Name:      topping.ToppingName,
				Price:     price,
				Quantity:  reqTopping.Quantity,
			}
			if topping.Stock != nil {
				stock, err := decimal.NewFromString(*topping.Stock)
				if err != nil {
					return nil, nil, &CheckoutResponse{Success: false, Message: strPtr("Invalid stock value for " + topping.ToppingName)}, nil
				}
				lt.Stock = &stock
			}
			line.Toppings = append(line.Toppings, lt)
		}

		if _, err := cart.AddLine(line); err != nil {
			return nil, nil, &CheckoutResponse{Success: false, Message: strPtr(err.Error())}, nil
		}
		products[product.ID] = product
	}

	// Topping stock is checked over the assembled cart so merged lines and
	// repeated toppings are validated against their summed consumption.
	if err := pos.CheckToppingStock(cart.Lines()); err != nil {
		return nil, nil, &CheckoutResponse{Success: false, Message: strPtr(err.Error())}, nil
	}

	return cart, products, nil, nil
}

func (h *CheckoutHandler) buildBreakdown(req CheckoutRequest, total decimal.Decimal) (models.PaymentBreakdown, string, *CheckoutResponse) {
	var breakdown models.PaymentBreakdown
	changeStr := ""

	switch req.PaymentMethod {
	case "Efectivo":
		if req.TenderedAmount == nil {
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr("tendered_amount required for cash")}
		}
		tendered, err := decimal.NewFromString(*req.TenderedAmount)
		if err != nil {
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr("Invalid tendered amount")}
		}
		change, err := pos.ChangeFor(total, tendered)
		if err != nil {
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr(err.Error())}
		}
		changeStr = change.StringFixed(2)
		breakdown.Tendered = tendered.StringFixed(2)
		breakdown.Change = changeStr

	case "Mixto":
		if req.Mixed == nil {
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr("mixed breakdown required for Mixto")}
		}
		amountA, errA := decimal.NewFromString(req.Mixed.AmountA)
		amountB, errB := decimal.NewFromString(req.Mixed.AmountB)
		if errA != nil || errB != nil {
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr("Invalid mixed amounts")}
		}
		if !amountA.Add(amountB).Equal(total) {
			msg := fmt.Sprintf("mixed amounts must add up to the total (%s)", pos.FormatCOP(total))
			return breakdown, "", &CheckoutResponse{Success: false, Message: strPtr(msg)}
		}
		breakdown.MethodA = req.Mixed.MethodA
		breakdown.AmountA = amountA.StringFixed(2)
		breakdown.MethodB = req.Mixed.MethodB
		breakdown.AmountB = amountB.StringFixed(2)
	}

	return breakdown, changeStr, nil
}

// insertWithCode assigns the next sequence code and retries the insert on
// uniqueness conflicts, switching to a timestamp fallback code after the
// first collision.
func (h *CheckoutHandler) insertWithCode(ctx context.Context, organizationID int64, venta *models.Venta) error {
	prefix := pos.PaymentPrefix(venta.PaymentMethod)
	day := time.Now()

	return utils.RetryWithBackoff(ctx, saleInsertAttempts, utils.LinearBackoff(saleRetryBackoff), func(attempt int) error {
		if attempt == 1 {
			var codes []string
			if err := h.db.WithContext(ctx).Model(&models.Venta{}).
				Where("organization_id = ? AND code LIKE ?", organizationID, prefix+"-"+day.Format("20060102")+"-%").
				Pluck("code", &codes).Error; err != nil {
				return utils.Permanent(err)
			}
			venta.Code = pos.SaleCode(prefix, day, pos.NextSequence(codes))
		} else {
			venta.Code = pos.FallbackSaleCode(prefix, time.Now())
		}

		err := h.db.WithContext(ctx).Create(venta).Error
		if err == nil {
			return nil
		}
		if isDuplicateKey(err) {
			venta.ID = 0
			return err
		}
		return utils.Permanent(err)
	})
}

func isDuplicateKey(err error) bool {
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

// decrementStock issues the post-sale updates as independent calls. The
// direct product/topping decrement carries no floor clamp; linked products
// round to 2 decimals and floor at zero.
func (h *CheckoutHandler) decrementStock(ctx context.Context, organizationID int64, lines []pos.Line, products map[int64]models.Producto) []string {
	var warnings []string

	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("stock update failed (org %d): %s", organizationID, msg)
		warnings = append(warnings, "sale recorded, stock not fully updated: "+msg)
	}

	for _, line := range lines {
		product := products[line.ProductID]
		qty := decimal.NewFromInt32(line.Quantity)

		if line.Stock != nil {
			newStock := line.Stock.Sub(qty)
			if err := h.db.WithContext(ctx).Model(&models.Producto{}).
				Where("id = ? AND organization_id = ?", line.ProductID, organizationID).
				Update("stock", newStock.StringFixed(2)).Error; err != nil {
				warn("%s: %v", line.Name, err)
			}
		}

		for _, lt := range line.Toppings {
			if lt.Stock == nil {
				continue
			}
			consumed := decimal.NewFromInt32(lt.Quantity).Mul(qty)
			newStock := lt.Stock.Sub(consumed)
			if err := h.db.WithContext(ctx).Model(&models.Topping{}).
				Where("id = ? AND organization_id = ?", lt.ToppingID, organizationID).
				Update("stock", newStock.StringFixed(2)).Error; err != nil {
				warn("topping %s: %v", lt.Name, err)
			}
		}

		for _, link := range product.LinkedProducts {
			if link.Child == nil || link.Child.Stock == nil {
				continue
			}
			perUnit, err := decimal.NewFromString(link.QuantityPerUnit)
			if err != nil {
				warn("unreadable link factor for product %d", link.ChildProductID)
				continue
			}
			childStock, err := decimal.NewFromString(*link.Child.Stock)
			if err != nil {
				warn("unreadable stock for linked product %s", link.Child.ProductName)
				continue
			}
			consumed := perUnit.Mul(qty).Round(2)
			newStock := childStock.Sub(consumed)
			if newStock.IsNegative() {
				newStock = decimal.Zero
			}
			if err := h.db.WithContext(ctx).Model(&models.Producto{}).
				Where("id = ? AND organization_id = ?", link.ChildProductID, organizationID).
				Update("stock", newStock.StringFixed(2)).Error; err != nil {
				warn("linked product %s: %v", link.Child.ProductName, err)
			}
		}
	}

	return warnings
}

func linesToItems(lines []pos.Line) models.SaleItems {
	items := make(models.SaleItems, 0, len(lines))
	for _, l := range lines {
		item := models.SaleItem{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice().StringFixed(2),
			LineTotal:  l.Total().StringFixed(2),
			Variations: l.Variations,
			Note:       l.Note,
		}
		for _, t := range l.Toppings {
			item.Toppings = append(item.Toppings, models.ItemTopping{
				ToppingID:   t.ToppingID,
				ToppingName: t.Name,
				Price:       t.Price.StringFixed(2),
				Quantity:    t.Quantity,
			})
		}
		items = append(items, item)
	}
	return items
}

// ResolveItems prices raw lines into a sale-item snapshot without recording
// anything. Used by the order service when opening kitchen tickets.
func (h *CheckoutHandler) ResolveItems(ctx context.Context, organizationID int64, lines []CheckoutLine) (models.SaleItems, string, error) {
	cart, _, resp, err := h.buildCart(ctx, organizationID, lines)
	if err != nil {
		return nil, "Database error", err
	}
	if resp != nil {
		msg := "invalid items"
		if resp.Message != nil {
			msg = *resp.Message
		}
		return nil, msg, nil
	}
	return linesToItems(cart.Lines()), "", nil
}

func ventaToView(v models.Venta) VentaView {
	total, _ := decimal.NewFromString(v.TotalAmount)
	return VentaView{
		ID:             v.ID,
		Code:           v.Code,
		Items:          v.Items,
		Subtotal:       v.Subtotal,
		DiscountAmount: v.DiscountAmount,
		TaxAmount:      v.TaxAmount,
		TotalAmount:    v.TotalAmount,
		TotalDisplay:   pos.FormatCOP(total),
		PaymentMethod:  v.PaymentMethod,
		Breakdown:      v.Breakdown,
		CreatedAt:      v.CreatedAt,
	}
}

// --- Sale lookups ---

type ListSalesResponse struct {
	Success bool        `json:"success"`
	Message *string     `json:"message,omitempty"`
	Ventas  []VentaView `json:"ventas"`
}

type GetSaleResponse struct {
	Success bool       `json:"success"`
	Message *string    `json:"message,omitempty"`
	Venta   *VentaView `json:"venta,omitempty"`
}

func (h *CheckoutHandler) ListSales(ctx context.Context, organizationID int64, from, to *time.Time) (*ListSalesResponse, error) {
	query := h.db.WithContext(ctx).Model(&models.Venta{}).
		Where("organization_id = ?", organizationID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var ventas []models.Venta
	if err := query.Order("created_at desc").Limit(200).Find(&ventas).Error; err != nil {
		return &ListSalesResponse{Success: false, Message: strPtr("Database error")}, err
	}

	views := make([]VentaView, len(ventas))
	for i, v := range ventas {
		views[i] = ventaToView(v)
	}
	return &ListSalesResponse{Success: true, Ventas: views}, nil
}

func (h *CheckoutHandler) GetSale(ctx context.Context, organizationID, ventaID int64) (*GetSaleResponse, error) {
	var venta models.Venta
	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", ventaID, organizationID).
		First(&venta).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &GetSaleResponse{Success: false, Message: strPtr("Sale not found")}, nil
		}
		return &GetSaleResponse{Success: false, Message: strPtr("Database error")}, err
	}

	view := ventaToView(venta)
	return &GetSaleResponse{Success: true, Venta: &view}, nil
}
