package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	cataloghandler "crece-pos/internal/services/catalog/handler"
)

type CatalogHTTPHandler struct {
	catalog *cataloghandler.CatalogHandler
}

func NewCatalogHTTPHandler(catalog *cataloghandler.CatalogHandler) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: catalog}
}

// --- Products ---

func (h *CatalogHTTPHandler) CreateProduct(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req cataloghandler.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.CreateProduct(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to create product")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Product created"), resp.Product))
}

func (h *CatalogHTTPHandler) GetProduct(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := h.catalog.GetProduct(ctx, orgID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusNotFound, errorResponse(msgOr(resp.Message, "Product not found")))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", resp.Product))
}

func (h *CatalogHTTPHandler) UpdateProduct(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var req cataloghandler.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.UpdateProduct(ctx, orgID, productID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to update product")))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Product updated"), resp.Product))
}

func (h *CatalogHTTPHandler) ListProducts(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.ListProducts(ctx, orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Products retrieved successfully", resp.Products))
}

// --- Toppings ---

func (h *CatalogHTTPHandler) CreateTopping(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req cataloghandler.CreateToppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.CreateTopping(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to create topping")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Topping created"), resp.Topping))
}

func (h *CatalogHTTPHandler) ListToppings(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.ListToppings(ctx, orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Toppings retrieved successfully", resp.Toppings))
}

func (h *CatalogHTTPHandler) UpdateTopping(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	toppingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid topping ID"))
		return
	}

	var req cataloghandler.UpdateToppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.catalog.UpdateTopping(ctx, orgID, toppingID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Catalog service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to update topping")))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Topping updated"), resp.Topping))
}
