package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	checkouthandler "crece-pos/internal/services/checkout/handler"
)

type CheckoutHTTPHandler struct {
	checkout *checkouthandler.CheckoutHandler
}

func NewCheckoutHTTPHandler(checkout *checkouthandler.CheckoutHandler) *CheckoutHTTPHandler {
	return &CheckoutHTTPHandler{checkout: checkout}
}

func (h *CheckoutHTTPHandler) Checkout(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req checkouthandler.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := h.checkout.Checkout(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(msgOr(resp.Message, "Checkout service error")))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Checkout rejected")))
		return
	}

	c.JSON(http.StatusCreated, successWithMetaResponse(msgOr(resp.Message, "Sale recorded"), map[string]interface{}{
		"venta":  resp.Venta,
		"change": resp.Change,
	}, map[string]interface{}{
		"warnings": resp.Warnings,
	}))
}

type ListSalesQuery struct {
	From *string `form:"from"`
	To   *string `form:"to"`
}

func (h *CheckoutHTTPHandler) ListSales(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var query ListSalesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var from, to *time.Time
	if query.From != nil {
		t, err := time.Parse(time.RFC3339, *query.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid from date"))
			return
		}
		from = &t
	}
	if query.To != nil {
		t, err := time.Parse(time.RFC3339, *query.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid to date"))
			return
		}
		to = &t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.checkout.ListSales(ctx, orgID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Checkout service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sales retrieved successfully", resp.Ventas))
}

func (h *CheckoutHTTPHandler) GetSale(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	ventaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := h.checkout.GetSale(ctx, orgID, ventaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Checkout service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusNotFound, errorResponse(msgOr(resp.Message, "Sale not found")))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale retrieved successfully", resp.Venta))
}
