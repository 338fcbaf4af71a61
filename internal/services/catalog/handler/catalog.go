package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"crece-pos/internal/cache"
	"crece-pos/internal/database/models"
)

const (
	CATALOG_CACHE_PREFIX = "catalog:"
	PRODUCTS_CACHE_KEY   = "catalog:products"
	TOPPINGS_CACHE_KEY   = "catalog:toppings"
	CACHE_TTL_SHORT      = 5 * time.Minute
	CACHE_TTL_MEDIUM     = 30 * time.Minute
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// LimitChecker gates catalog growth by subscription tier.
type LimitChecker interface {
	CanCreateProduct(ctx context.Context, organizationID int64) (bool, string, error)
}

type CatalogHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	images *cache.ImageCache
	limits LimitChecker
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client, images *cache.ImageCache, limits LimitChecker) *CatalogHandler {
	return &CatalogHandler{db: db, redis: redisClient, images: images, limits: limits}
}

func (h *CatalogHandler) InvalidateCatalogCaches(ctx context.Context, organizationID int64) {
	_ = h.redis.Del(ctx,
		fmt.Sprintf("%s:%d", PRODUCTS_CACHE_KEY, organizationID),
		fmt.Sprintf("%s:%d", TOPPINGS_CACHE_KEY, organizationID),
	)
}

// --- Views ---

type LinkedProductView struct {
	ChildProductID  int64  `json:"child_product_id"`
	ChildName       string `json:"child_name,omitempty"`
	QuantityPerUnit string `json:"quantity_per_unit"`
}

type ProductView struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	Price        string                 `json:"price"`
	Stock        *string                `json:"stock"`
	ImageURL     *string                `json:"image_url,omitempty"`
	Variations   models.VariationGroups `json:"variations,omitempty"`
	Linked       []LinkedProductView    `json:"linked_products,omitempty"`
	IsActive     bool                   `json:"is_active"`
	CreatedAt    time.Time              `json:"created_at"`
}

type ToppingView struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	Stock     *string `json:"stock"`
	Type      string  `json:"type"`
	IsActive  bool    `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *CatalogHandler) productToView(ctx context.Context, p models.Producto) ProductView {
	linked := make([]LinkedProductView, 0, len(p.LinkedProducts))
	for _, lp := range p.LinkedProducts {
		v := LinkedProductView{
			ChildProductID:  lp.ChildProductID,
			QuantityPerUnit: lp.QuantityPerUnit,
		}
		if lp.Child != nil {
			v.ChildName = lp.Child.ProductName
		}
		linked = append(linked, v)
	}

	view := ProductView{
		ID:         p.ID,
		Name:       p.ProductName,
		Price:      p.ProductPrice,
		Stock:      p.Stock,
		Variations: p.Variations,
		Linked:     linked,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
	}
	if p.ImagePath != nil {
		view.ImageURL = strPtr(h.resolveImageURL(ctx, *p.ImagePath))
	}
	return view
}

func (h *CatalogHandler) resolveImageURL(ctx context.Context, path string) string {
	if cached, err := h.images.Get(ctx, path); err == nil && cached != nil {
		return cached.URL
	}
	url := "/media/" + path
	_ = h.images.Set(ctx, path, url)
	return url
}

func toppingToView(t models.Topping) ToppingView {
	return ToppingView{
		ID:        t.ID,
		Name:      t.ToppingName,
		Price:     t.Price,
		Stock:     t.Stock,
		Type:      t.ToppingType,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
	}
}

// --- Products ---

type LinkedProductInput struct {
	ChildProductID  int64  `json:"child_product_id"`
	QuantityPerUnit string `json:"quantity_per_unit"`
}

type CreateProductRequest struct {
	Name       string                 `json:"name"`
	Price      string                 `json:"price"`
	Stock      *string                `json:"stock"`
	ImagePath  *string                `json:"image_path"`
	Variations models.VariationGroups `json:"variations"`
	Linked     []LinkedProductInput   `json:"linked_products"`
}

type ProductResponse struct {
	Success bool         `json:"success"`
	Message *string      `json:"message,omitempty"`
	Product *ProductView `json:"product,omitempty"`
}

type ListProductsResponse struct {
	Success  bool          `json:"success"`
	Message  *string       `json:"message,omitempty"`
	Products []ProductView `json:"products"`
}

func (h *CatalogHandler) CreateProduct(ctx context.Context, organizationID int64, req CreateProductRequest) (*ProductResponse, error) {
	if req.Name == "" || req.Price == "" {
		return &ProductResponse{Success: false, Message: strPtr("name and price are required")}, nil
	}

	allowed, reason, err := h.limits.CanCreateProduct(ctx, organizationID)
	if err != nil {
		return &ProductResponse{Success: false, Message: strPtr("Failed to check plan limits")}, err
	}
	if !allowed {
		return &ProductResponse{Success: false, Message: strPtr(reason)}, nil
	}

	product := models.Producto{
		OrganizationID: organizationID,
		ProductName:    req.Name,
		ProductPrice:   req.Price,
		Stock:          req.Stock,
		ImagePath:      req.ImagePath,
		Variations:     req.Variations,
		IsActive:       true,
	}
	if err := h.db.WithContext(ctx).Create(&product).Error; err != nil {
		return &ProductResponse{Success: false, Message: strPtr("Failed to create product: " + err.Error())}, err
	}

	for _, lp := range req.Linked {
		link := models.ProductoVinculado{
			OrganizationID:  organizationID,
			ParentProductID: product.ID,
			ChildProductID:  lp.ChildProductID,
			QuantityPerUnit: lp.QuantityPerUnit,
		}
		if err := h.db.WithContext(ctx).Create(&link).Error; err != nil {
			return &ProductResponse{Success: false, Message: strPtr("Failed to link product: " + err.Error())}, err
		}
	}

	h.InvalidateCatalogCaches(ctx, organizationID)

	created, err := h.loadProduct(ctx, organizationID, product.ID)
	if err != nil {
		return &ProductResponse{Success: false, Message: strPtr("Failed to reload product")}, err
	}

	view := h.productToView(ctx, *created)
	return &ProductResponse{Success: true, Message: strPtr("Product created"), Product: &view}, nil
}

type UpdateProductRequest struct {
	Name      *string `json:"name"`
	Price     *string `json:"price"`
	Stock     *string `json:"stock"`
	ImagePath *string `json:"image_path"`
	IsActive  *bool   `json:"is_active"`
}

func (h *CatalogHandler) UpdateProduct(ctx context.Context, organizationID, productID int64, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := h.loadProduct(ctx, organizationID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &ProductResponse{Success: false, Message: strPtr("Product not found")}, nil
		}
		return &ProductResponse{Success: false, Message: strPtr("Database error")}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["product_name"] = *req.Name
	}
	if req.Price != nil {
		updates["product_price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.ImagePath != nil {
		updates["image_path"] = *req.ImagePath
		h.images.Invalidate(ctx, *req.ImagePath)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := h.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return &ProductResponse{Success: false, Message: strPtr("Failed to update product: " + err.Error())}, err
		}
	}

	h.InvalidateCatalogCaches(ctx, organizationID)

	updated, err := h.loadProduct(ctx, organizationID, productID)
	if err != nil {
		return &ProductResponse{Success: false, Message: strPtr("Failed to reload product")}, err
	}

	view := h.productToView(ctx, *updated)
	return &ProductResponse{Success: true, Message: strPtr("Product updated"), Product: &view}, nil
}

func (h *CatalogHandler) GetProduct(ctx context.Context, organizationID, productID int64) (*ProductResponse, error) {
	product, err := h.loadProduct(ctx, organizationID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &ProductResponse{Success: false, Message: strPtr("Product not found")}, nil
		}
		return &ProductResponse{Success: false, Message: strPtr("Database error")}, err
	}

	view := h.productToView(ctx, *product)
	return &ProductResponse{Success: true, Product: &view}, nil
}

func (h *CatalogHandler) ListProducts(ctx context.Context, organizationID int64) (*ListProductsResponse, error) {
	cacheKey := fmt.Sprintf("%s:%d", PRODUCTS_CACHE_KEY, organizationID)
	if data, err := h.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var views []ProductView
		if json.Unmarshal(data, &views) == nil {
			return &ListProductsResponse{Success: true, Products: views}, nil
		}
	}

	var products []models.Producto
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Preload("LinkedProducts.Child").
		Order("id").
		Find(&products).Error; err != nil {
		return &ListProductsResponse{Success: false, Message: strPtr("Database error")}, err
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = h.productToView(ctx, p)
	}

	if data, err := json.Marshal(views); err == nil {
		_ = h.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}

	return &ListProductsResponse{Success: true, Products: views}, nil
}

func (h *CatalogHandler) loadProduct(ctx context.Context, organizationID, productID int64) (*models.Producto, error) {
	var product models.Producto
	err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", productID, organizationID).
		Preload("LinkedProducts.Child").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// --- Toppings ---

type CreateToppingRequest struct {
	Name  string  `json:"name"`
	Price string  `json:"price"`
	Stock *string `json:"stock"`
	Type  string  `json:"type"`
}

type ToppingResponse struct {
	Success bool         `json:"success"`
	Message *string      `json:"message,omitempty"`
	Topping *ToppingView `json:"topping,omitempty"`
}

type ListToppingsResponse struct {
	Success  bool          `json:"success"`
	Message  *string       `json:"message,omitempty"`
	Toppings []ToppingView `json:"toppings"`
}

func (h *CatalogHandler) CreateTopping(ctx context.Context, organizationID int64, req CreateToppingRequest) (*ToppingResponse, error) {
	if req.Name == "" || req.Price == "" {
		return &ToppingResponse{Success: false, Message: strPtr("name and price are required")}, nil
	}

	toppingType := req.Type
	if toppingType == "" {
		toppingType = "food"
	}
	if toppingType != "food" && toppingType != "service" {
		return &ToppingResponse{Success: false, Message: strPtr("type must be food or service")}, nil
	}

	topping := models.Topping{
		OrganizationID: organizationID,
		ToppingName:    req.Name,
		Price:          req.Price,
		Stock:          req.Stock,
		ToppingType:    toppingType,
		IsActive:       true,
	}
	if err := h.db.WithContext(ctx).Create(&topping).Error; err != nil {
		return &ToppingResponse{Success: false, Message: strPtr("Failed to create topping: " + err.Error())}, err
	}

	h.InvalidateCatalogCaches(ctx, organizationID)

	view := toppingToView(topping)
	return &ToppingResponse{Success: true, Message: strPtr("Topping created"), Topping: &view}, nil
}

func (h *CatalogHandler) ListToppings(ctx context.Context, organizationID int64) (*ListToppingsResponse, error) {
	cacheKey := fmt.Sprintf("%s:%d", TOPPINGS_CACHE_KEY, organizationID)
	if data, err := h.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var views []ToppingView
		if json.Unmarshal(data, &views) == nil {
			return &ListToppingsResponse{Success: true, Toppings: views}, nil
		}
	}

	var toppings []models.Topping
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("id").
		Find(&toppings).Error; err != nil {
		return &ListToppingsResponse{Success: false, Message: strPtr("Database error")}, err
	}

	views := make([]ToppingView, len(toppings))
	for i, t := range toppings {
		views[i] = toppingToView(t)
	}

	if data, err := json.Marshal(views); err == nil {
		_ = h.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}

	return &ListToppingsResponse{Success: true, Toppings: views}, nil
}

type UpdateToppingRequest struct {
	Name     *string `json:"name"`
	Price    *string `json:"price"`
	Stock    *string `json:"stock"`
	IsActive *bool   `json:"is_active"`
}

func (h *CatalogHandler) UpdateTopping(ctx context.Context, organizationID, toppingID int64, req UpdateToppingRequest) (*ToppingResponse, error) {
	var topping models.Topping
	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", toppingID, organizationID).
		First(&topping).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &ToppingResponse{Success: false, Message: strPtr("Topping not found")}, nil
		}
		return &ToppingResponse{Success: false, Message: strPtr("Database error")}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["topping_name"] = *req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := h.db.WithContext(ctx).Model(&topping).Updates(updates).Error; err != nil {
			return &ToppingResponse{Success: false, Message: strPtr("Failed to update topping: " + err.Error())}, err
		}
	}

	h.InvalidateCatalogCaches(ctx, organizationID)

	if err := h.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", toppingID, organizationID).
		First(&topping).Error; err != nil {
		return &ToppingResponse{Success: false, Message: strPtr("Failed to reload topping")}, err
	}

	view := toppingToView(topping)
	return &ToppingResponse{Success: true, Message: strPtr("Topping updated"), Topping: &view}, nil
}
