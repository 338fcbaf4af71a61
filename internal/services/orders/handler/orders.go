package handler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"crece-pos/internal/database/models"
	checkout "crece-pos/internal/services/checkout/handler"
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type OrdersHandler struct {
	db       *gorm.DB
	checkout *checkout.CheckoutHandler
}

func NewOrdersHandler(db *gorm.DB, checkoutHandler *checkout.CheckoutHandler) *OrdersHandler {
	return &OrdersHandler{db: db, checkout: checkoutHandler}
}

// --- Views ---

type MesaView struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Capacity int32  `json:"capacity"`
	Shape    string `json:"shape"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
	Status   string `json:"status"`
	PosX     int32  `json:"pos_x"`
	PosY     int32  `json:"pos_y"`
}

type PedidoView struct {
	ID              int64            `json:"id"`
	MesaID          *int64           `json:"mesa_id,omitempty"`
	Status          string           `json:"status"`
	PagoInmediato   bool             `json:"pago_inmediato"`
	Items           models.SaleItems `json:"items"`
	VentaID         *int64           `json:"venta_id,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Stuck           bool             `json:"stuck"`
	CreatedAt       time.Time        `json:"created_at"`
	StatusChangedAt time.Time        `json:"status_changed_at"`
}

func mesaToView(m models.Mesa) MesaView {
	return MesaView{
		ID:       m.ID,
		Label:    m.Label,
		Capacity: m.Capacity,
		Shape:    m.Shape,
		Width:    m.Width,
		Height:   m.Height,
		Status:   m.Status,
		PosX:     m.PosX,
		PosY:     m.PosY,
	}
}

func pedidoToView(p models.Pedido, now time.Time) PedidoView {
	return PedidoView{
		ID:              p.ID,
		MesaID:          p.MesaID,
		Status:          p.Status,
		PagoInmediato:   p.PagoInmediato,
		Items:           p.Items,
		VentaID:         p.VentaID,
		Notes:           p.Notes,
		Stuck:           IsStuck(p.Status, p.StatusChangedAt, now),
		CreatedAt:       p.CreatedAt,
		StatusChangedAt: p.StatusChangedAt,
	}
}

// --- Mesas ---

type CreateMesaRequest struct {
	Label    string `json:"label"`
	Capacity int32  `json:"capacity"`
	Shape    string `json:"shape"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
}

type MesaResponse struct {
	Success bool      `json:"success"`
	Message *string   `json:"message,omitempty"`
	Mesa    *MesaView `json:"mesa,omitempty"`
}

type ListMesasResponse struct {
	Success bool       `json:"success"`
	Message *string    `json:"message,omitempty"`
	Mesas   []MesaView `json:"mesas"`
}

func (h *OrdersHandler) CreateMesa(ctx context.Context, organizationID int64, req CreateMesaRequest) (*MesaResponse, error) {
	if req.Label == "" {
		return &MesaResponse{Success: false, Message: strPtr("label required")}, nil
	}

	mesa := models.Mesa{
		OrganizationID: organizationID,
		Label:          req.Label,
		Capacity:       4,
		Shape:          "square",
		Width:          80,
		Height:         80,
		Status:         "available",
	}
	if req.Capacity > 0 {
		mesa.Capacity = req.Capacity
	}
	if req.Shape != "" {
		mesa.Shape = req.Shape
	}
	if req.Width > 0 {
		mesa.Width = req.Width
	}
	if req.Height > 0 {
		mesa.Height = req.Height
	}

	if err := h.db.WithContext(ctx).Create(&mesa).Error; err != nil {
		return &MesaResponse{Success: false, Message: strPtr("Failed to create table: " + err.Error())}, err
	}

	view := mesaToView(mesa)
	return &MesaResponse{Success: true, Message: strPtr("Table created"), Mesa: &view}, nil
}

func (h *OrdersHandler) ListMesas(ctx context.Context, organizationID int64) (*ListMesasResponse, error) {
	var mesas []models.Mesa
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("label").
		Find(&mesas).Error; err != nil {
		return &ListMesasResponse{Success: false, Message: strPtr("Database error")}, err
	}

	views := make([]MesaView, len(mesas))
	for i, m := range mesas {
		views[i] = mesaToView(m)
	}
	return &ListMesasResponse{Success: true, Mesas: views}, nil
}

type UpdateMesaRequest struct {
	Label    *string `json:"label"`
	Capacity *int32  `json:"capacity"`
	Status   *string `json:"status"`
	PosX     *int32  `json:"pos_x"`
	PosY     *int32  `json:"pos_y"`
}

var mesaStatuses = map[string]bool{
	"available":   true,
	"occupied":    true,
	"reserved":    true,
	"maintenance": true,
}

func (h *OrdersHandler) UpdateMesa(ctx context.Context, organizationID, mesaID int64, req UpdateMesaRequest) (*MesaResponse, error) {
	var mesa models.Mesa
	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", mesaID, organizationID).
		First(&mesa).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &MesaResponse{Success: false, Message: strPtr("Table not found")}, nil
		}
		return &MesaResponse{Success: false, Message: strPtr("Database error")}, err
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Status != nil {
		if !mesaStatuses[*req.Status] {
			return &MesaResponse{Success: false, Message: strPtr("Invalid table status")}, nil
		}
		updates["status"] = *req.Status
	}
	if req.PosX != nil {
		updates["pos_x"] = *req.PosX
	}
	if req.PosY != nil {
		updates["pos_y"] = *req.PosY
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := h.db.WithContext(ctx).Model(&mesa).Updates(updates).Error; err != nil {
			return &MesaResponse{Success: false, Message: strPtr("Failed to update table: " + err.Error())}, err
		}
	}

	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", mesaID, organizationID).
		First(&mesa).Error; err != nil {
		return &MesaResponse{Success: false, Message: strPtr("Failed to reload table")}, err
	}

	view := mesaToView(mesa)
	return &MesaResponse{Success: true, Message: strPtr("Table updated"), Mesa: &view}, nil
}

// --- Pedidos ---

type CreatePedidoRequest struct {
	MesaID        *int64                  `json:"mesa_id"`
	PagoInmediato bool                    `json:"pago_inmediato"`
	Items         []checkout.CheckoutLine `json:"items"`
	Notes         *string                 `json:"notes"`
}

type PedidoResponse struct {
	Success bool        `json:"success"`
	Message *string     `json:"message,omitempty"`
	Pedido  *PedidoView `json:"pedido,omitempty"`
}

type ListPedidosResponse struct {
	Success bool         `json:"success"`
	Message *string      `json:"message,omitempty"`
	Pedidos []PedidoView `json:"pedidos"`
}

func (h *OrdersHandler) CreatePedido(ctx context.Context, organizationID int64, req CreatePedidoRequest) (*PedidoResponse, error) {
	if len(req.Items) == 0 {
		return &PedidoResponse{Success: false, Message: strPtr("order must have at least one item")}, nil
	}

	items, msg, err := h.checkout.ResolveItems(ctx, organizationID, req.Items)
	if err != nil {
		return &PedidoResponse{Success: false, Message: strPtr(msg)}, err
	}
	if msg != "" {
		return &PedidoResponse{Success: false, Message: strPtr(msg)}, nil
	}

	if req.MesaID != nil {
		var mesa models.Mesa
		if err := h.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", *req.MesaID, organizationID).
			First(&mesa).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &PedidoResponse{Success: false, Message: strPtr("Table not found")}, nil
			}
			return &PedidoResponse{Success: false, Message: strPtr("Database error")}, err
		}
	}

	now := time.Now()
	pedido := models.Pedido{
		OrganizationID:  organizationID,
		MesaID:          req.MesaID,
		Status:          models.PedidoPending,
		PagoInmediato:   req.PagoInmediato,
		Items:           items,
		Notes:           req.Notes,
		StatusChangedAt: now,
	}
	if err := h.db.WithContext(ctx).Create(&pedido).Error; err != nil {
		return &PedidoResponse{Success: false, Message: strPtr("Failed to create order: " + err.Error())}, err
	}

	if req.MesaID != nil {
		if err := h.db.WithContext(ctx).Model(&models.Mesa{}).
			Where("id = ? AND organization_id = ?", *req.MesaID, organizationID).
			Update("status", "occupied").Error; err != nil {
			log.Printf("failed to mark table %d occupied: %v", *req.MesaID, err)
		}
	}

	view := pedidoToView(pedido, now)
	return &PedidoResponse{Success: true, Message: strPtr("Order created"), Pedido: &view}, nil
}

func (h *OrdersHandler) ListPedidos(ctx context.Context, organizationID int64, status *string) (*ListPedidosResponse, error) {
	query := h.db.WithContext(ctx).
		Where("organization_id = ?", organizationID)
	if status != nil && *status != "" {
		query = query.Where("status = ?", *status)
	}

	var pedidos []models.Pedido
	if err := query.Order("created_at").Find(&pedidos).Error; err != nil {
		return &ListPedidosResponse{Success: false, Message: strPtr("Database error")}, err
	}

	now := time.Now()
	views := make([]PedidoView, len(pedidos))
	for i, p := range pedidos {
		views[i] = pedidoToView(p, now)
	}
	return &ListPedidosResponse{Success: true, Pedidos: views}, nil
}

type UpdatePedidoStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) UpdatePedidoStatus(ctx context.Context, organizationID, pedidoID int64, req UpdatePedidoStatusRequest) (*PedidoResponse, error) {
	var pedido models.Pedido
	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", pedidoID, organizationID).
		First(&pedido).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &PedidoResponse{Success: false, Message: strPtr("Order not found")}, nil
		}
		return &PedidoResponse{Success: false, Message: strPtr("Database error")}, err
	}

	if !CanTransition(pedido.Status, req.Status) {
		msg := fmt.Sprintf("cannot transition order from %s to %s", pedido.Status, req.Status)
		return &PedidoResponse{Success: false, Message: strPtr(msg)}, nil
	}

	newStatus := EffectiveStatus(req.Status, pedido.PagoInmediato)
	now := time.Now()
	if err := h.db.WithContext(ctx).Model(&pedido).Updates(map[string]interface{}{
		"status":            newStatus,
		"status_changed_at": now,
	}).Error; err != nil {
		return &PedidoResponse{Success: false, Message: strPtr("Failed to update order: " + err.Error())}, err
	}
	pedido.Status = newStatus
	pedido.StatusChangedAt = now

	if newStatus == models.PedidoCompleted || newStatus == models.PedidoCancelled {
		h.releaseMesaIfIdle(ctx, organizationID, pedido.MesaID)
	}

	view := pedidoToView(pedido, now)
	return &PedidoResponse{Success: true, Message: strPtr("Order updated"), Pedido: &view}, nil
}

// releaseMesaIfIdle frees the table once no open orders remain on it.
func (h *OrdersHandler) releaseMesaIfIdle(ctx context.Context, organizationID int64, mesaID *int64) {
	if mesaID == nil {
		return
	}
	var open int64
	if err := h.db.WithContext(ctx).Model(&models.Pedido{}).
		Where("organization_id = ? AND mesa_id = ? AND status IN ?", organizationID, *mesaID,
			[]string{models.PedidoPending, models.PedidoInPreparation, models.PedidoReady}).
		Count(&open).Error; err != nil {
		log.Printf("failed to count open orders for table %d: %v", *mesaID, err)
		return
	}
	if open == 0 {
		if err := h.db.WithContext(ctx).Model(&models.Mesa{}).
			Where("id = ? AND organization_id = ?", *mesaID, organizationID).
			Update("status", "available").Error; err != nil {
			log.Printf("failed to release table %d: %v", *mesaID, err)
		}
	}
}

// --- Consolidation ---

type ConsolidateRequest struct {
	PedidoIDs      []int64                     `json:"pedido_ids"`
	Discount       *checkout.DiscountInput     `json:"discount,omitempty"`
	PaymentMethod  string                      `json:"payment_method"`
	TenderedAmount *string                     `json:"tendered_amount,omitempty"`
	Mixed          *checkout.MixedPaymentInput `json:"mixed,omitempty"`
}

type ConsolidateResponse struct {
	Success  bool                `json:"success"`
	Message  *string             `json:"message,omitempty"`
	Venta    *checkout.VentaView `json:"venta,omitempty"`
	Change   *string             `json:"change,omitempty"`
	Pedidos  []PedidoView        `json:"pedidos,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// Consolidate merges the open orders of one table into a single combined
// sale, then back-links every order to the resulting venta.
func (h *OrdersHandler) Consolidate(ctx context.Context, organizationID int64, req ConsolidateRequest) (*ConsolidateResponse, error) {
	if len(req.PedidoIDs) == 0 {
		return &ConsolidateResponse{Success: false, Message: strPtr("pedido_ids required")}, nil
	}

	var pedidos []models.Pedido
	if err := h.db.WithContext(ctx).
		Where("id IN ? AND organization_id = ?", req.PedidoIDs, organizationID).
		Find(&pedidos).Error; err != nil {
		return &ConsolidateResponse{Success: false, Message: strPtr("Database error")}, err
	}
	if len(pedidos) != len(req.PedidoIDs) {
		return &ConsolidateResponse{Success: false, Message: strPtr("One or more orders not found")}, nil
	}

	var mesaID *int64
	for i, p := range pedidos {
		if p.Status == models.PedidoCompleted || p.Status == models.PedidoCancelled {
			msg := fmt.Sprintf("order %d is already %s", p.ID, p.Status)
			return &ConsolidateResponse{Success: false, Message: strPtr(msg)}, nil
		}
		if p.VentaID != nil {
			msg := fmt.Sprintf("order %d is already paid", p.ID)
			return &ConsolidateResponse{Success: false, Message: strPtr(msg)}, nil
		}
		if i == 0 {
			mesaID = p.MesaID
		} else if !sameMesa(mesaID, p.MesaID) {
			return &ConsolidateResponse{Success: false, Message: strPtr("orders must share the same table")}, nil
		}
	}

	lines := mergeItems(pedidos)

	saleResp, err := h.checkout.Checkout(ctx, organizationID, checkout.CheckoutRequest{
		Lines:          lines,
		Discount:       req.Discount,
		PaymentMethod:  req.PaymentMethod,
		TenderedAmount: req.TenderedAmount,
		Mixed:          req.Mixed,
	})
	if err != nil {
		return &ConsolidateResponse{Success: false, Message: saleResp.Message}, err
	}
	if !saleResp.Success {
		return &ConsolidateResponse{Success: false, Message: saleResp.Message}, nil
	}

	warnings := saleResp.Warnings
	now := time.Now()
	views := make([]PedidoView, 0, len(pedidos))
	for _, p := range pedidos {
		newStatus := ConsolidationStatus(p.Status, p.PagoInmediato)
		if err := h.db.WithContext(ctx).Model(&models.Pedido{}).
			Where("id = ? AND organization_id = ?", p.ID, organizationID).
			Updates(map[string]interface{}{
				"venta_id":          saleResp.Venta.ID,
				"status":            newStatus,
				"status_changed_at": now,
			}).Error; err != nil {
			log.Printf("failed to link order %d to sale %d: %v", p.ID, saleResp.Venta.ID, err)
			warnings = append(warnings, fmt.Sprintf("sale recorded, order %d not updated", p.ID))
			continue
		}
		p.VentaID = &saleResp.Venta.ID
		p.Status = newStatus
		p.StatusChangedAt = now
		views = append(views, pedidoToView(p, now))

		if newStatus == models.PedidoCompleted {
			h.releaseMesaIfIdle(ctx, organizationID, p.MesaID)
		}
	}

	return &ConsolidateResponse{
		Success:  true,
		Message:  strPtr("Orders consolidated"),
		Venta:    saleResp.Venta,
		Change:   saleResp.Change,
		Pedidos:  views,
		Warnings: warnings,
	}, nil
}

func sameMesa(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// mergeItems sums quantities per identical (product, toppings, variations,
// note) key across all consolidated orders, preserving first-seen order.
func mergeItems(pedidos []models.Pedido) []checkout.CheckoutLine {
	var keys []string
	merged := make(map[string]*checkout.CheckoutLine)

	for _, p := range pedidos {
		for _, item := range p.Items {
			key := itemKey(item)
			if existing, ok := merged[key]; ok {
				existing.Quantity += item.Quantity
				continue
			}

			line := checkout.CheckoutLine{
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				Variations: item.Variations,
				Note:       item.Note,
			}
			for _, t := range item.Toppings {
				line.Toppings = append(line.Toppings, checkout.CheckoutTopping{
					ToppingID: t.ToppingID,
					Quantity:  t.Quantity,
				})
			}
			merged[key] = &line
			keys = append(keys, key)
		}
	}

	lines := make([]checkout.CheckoutLine, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, *merged[key])
	}
	return lines
}

func itemKey(item models.SaleItem) string {
	toppings := make([]string, 0, len(item.Toppings))
	for _, t := range item.Toppings {
		toppings = append(toppings, fmt.Sprintf("%d:%d", t.ToppingID, t.Quantity))
	}
	sort.Strings(toppings)

	varKeys := make([]string, 0, len(item.Variations))
	for k := range item.Variations {
		varKeys = append(varKeys, k)
	}
	sort.Strings(varKeys)

	var variations []string
	for _, k := range varKeys {
		values := append([]string(nil), item.Variations[k]...)
		sort.Strings(values)
		variations = append(variations, k+"="+strings.Join(values, ","))
	}

	return fmt.Sprintf("%d|%s|%s|%s", item.ProductID,
		strings.Join(toppings, ","), strings.Join(variations, ";"), item.Note)
}
