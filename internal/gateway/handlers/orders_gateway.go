package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	ordershandler "crece-pos/internal/services/orders/handler"
)

type OrdersHTTPHandler struct {
	orders *ordershandler.OrdersHandler
}

func NewOrdersHTTPHandler(orders *ordershandler.OrdersHandler) *OrdersHTTPHandler {
	return &OrdersHTTPHandler{orders: orders}
}

// --- Mesas ---

func (h *OrdersHTTPHandler) CreateMesa(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req ordershandler.CreateMesaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.CreateMesa(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to create table")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Table created"), resp.Mesa))
}

func (h *OrdersHTTPHandler) ListMesas(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.ListMesas(ctx, orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Tables retrieved successfully", resp.Mesas))
}

func (h *OrdersHTTPHandler) UpdateMesa(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	mesaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid table ID"))
		return
	}

	var req ordershandler.UpdateMesaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.UpdateMesa(ctx, orgID, mesaID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to update table")))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Table updated"), resp.Mesa))
}

// --- Pedidos ---

func (h *OrdersHTTPHandler) CreatePedido(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req ordershandler.CreatePedidoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.CreatePedido(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to create order")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Order created"), resp.Pedido))
}

type ListPedidosQuery struct {
	Status *string `form:"status"`
}

func (h *OrdersHTTPHandler) ListPedidos(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var query ListPedidosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.ListPedidos(ctx, orgID, query.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Orders retrieved successfully", resp.Pedidos))
}

func (h *OrdersHTTPHandler) UpdatePedidoStatus(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	pedidoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	var req ordershandler.UpdatePedidoStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.orders.UpdatePedidoStatus(ctx, orgID, pedidoID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Orders service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to update order")))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Order updated"), resp.Pedido))
}

func (h *OrdersHTTPHandler) Consolidate(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req ordershandler.ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := h.orders.Consolidate(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(msgOr(resp.Message, "Orders service error")))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Consolidation rejected")))
		return
	}

	c.JSON(http.StatusCreated, successWithMetaResponse(msgOr(resp.Message, "Orders consolidated"), map[string]interface{}{
		"venta":   resp.Venta,
		"change":  resp.Change,
		"pedidos": resp.Pedidos,
	}, map[string]interface{}{
		"warnings": resp.Warnings,
	}))
}
