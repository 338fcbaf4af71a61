package main

import (
	"log"
	"time"

	"crece-pos/config"
	"crece-pos/internal/cache"
	"crece-pos/internal/database"
	billinghandler "crece-pos/internal/services/billing/handler"
	cataloghandler "crece-pos/internal/services/catalog/handler"
	checkouthandler "crece-pos/internal/services/checkout/handler"
	ordershandler "crece-pos/internal/services/orders/handler"
	userhandler "crece-pos/internal/services/user/handler"
	"crece-pos/internal/utils"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	utils.InitJWT(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.MigrateUserDB(db); err != nil {
		log.Fatalf("Failed to migrate user tables: %v", err)
	}
	if err := database.MigratePOSDB(db); err != nil {
		log.Fatalf("Failed to migrate POS tables: %v", err)
	}
	if err := database.MigrateBillingDB(db); err != nil {
		log.Fatalf("Failed to migrate billing tables: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	imageCache := cache.NewImageCache(redisClient)

	billing := billinghandler.NewBillingHandler(db, cfg.Billing.WebhookSecret, cfg.Billing.VIPEmails, cfg.Billing.VIPOrgs)
	users := userhandler.NewUserHandler(db, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	catalog := cataloghandler.NewCatalogHandler(db, redisClient, imageCache, billing)
	checkout := checkouthandler.NewCheckoutHandler(db, billing, cfg.POS.RestaurantMode, cfg.POS.IVAPercent)
	orders := ordershandler.NewOrdersHandler(db, checkout)

	r := buildRouter(users, catalog, checkout, orders, billing)

	addr := ":" + cfg.Server.Port
	log.Printf("Starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
