package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crece-pos/internal/gateway/handlers"
	"crece-pos/internal/gateway/middleware"
	billinghandler "crece-pos/internal/services/billing/handler"
	cataloghandler "crece-pos/internal/services/catalog/handler"
	checkouthandler "crece-pos/internal/services/checkout/handler"
	ordershandler "crece-pos/internal/services/orders/handler"
	userhandler "crece-pos/internal/services/user/handler"
)

func buildRouter(
	users *userhandler.UserHandler,
	catalog *cataloghandler.CatalogHandler,
	checkout *checkouthandler.CheckoutHandler,
	orders *ordershandler.OrdersHandler,
	billing *billinghandler.BillingHandler,
) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("120-M"))

	authHandler := handlers.NewAuthHTTPHandler(users)
	catalogHandler := handlers.NewCatalogHTTPHandler(catalog)
	checkoutHandler := handlers.NewCheckoutHTTPHandler(checkout)
	ordersHandler := handlers.NewOrdersHTTPHandler(orders)
	billingHandler := handlers.NewBillingHTTPHandler(billing)

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		auth.Use(middleware.RateLimit("10-M"))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		public.GET("/plans", billingHandler.ListPlans)
	}

	// --- Webhooks ---
	r.POST("/webhooks/payments", billingHandler.PaymentWebhook)

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		products := protected.Group("/products")
		{
			products.POST("", catalogHandler.CreateProduct)
			products.GET("", catalogHandler.ListProducts)
			products.GET("/:id", catalogHandler.GetProduct)
			products.PUT("/:id", catalogHandler.UpdateProduct)
		}

		toppings := protected.Group("/toppings")
		{
			toppings.POST("", catalogHandler.CreateTopping)
			toppings.GET("", catalogHandler.ListToppings)
			toppings.PUT("/:id", catalogHandler.UpdateTopping)
		}

		sales := protected.Group("/sales")
		{
			sales.POST("", checkoutHandler.Checkout)
			sales.GET("", checkoutHandler.ListSales)
			sales.GET("/:id", checkoutHandler.GetSale)
		}

		mesas := protected.Group("/mesas")
		{
			mesas.POST("", ordersHandler.CreateMesa)
			mesas.GET("", ordersHandler.ListMesas)
			mesas.PUT("/:id", ordersHandler.UpdateMesa)
		}

		pedidos := protected.Group("/pedidos")
		{
			pedidos.POST("", ordersHandler.CreatePedido)
			pedidos.GET("", ordersHandler.ListPedidos)
			pedidos.PUT("/:id/status", ordersHandler.UpdatePedidoStatus)
			pedidos.POST("/consolidate", ordersHandler.Consolidate)
		}

		billingGroup := protected.Group("/billing")
		{
			billingGroup.GET("/subscription", billingHandler.GetSubscription)
			billingGroup.POST("/payments", billingHandler.CreatePaymentIntent)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	return r
}
