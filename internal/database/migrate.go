package database

import (
	"gorm.io/gorm"

	"crece-pos/internal/database/models"
)

func MigrateUserDB(db *gorm.DB) error {
	db.AutoMigrate(&models.Organization{})
	db.AutoMigrate(&models.User{})
	return nil
}

func MigratePOSDB(db *gorm.DB) error {
	db.AutoMigrate(&models.Producto{})
	db.AutoMigrate(&models.ProductoVinculado{})
	db.AutoMigrate(&models.Topping{})
	db.AutoMigrate(&models.Mesa{})
	db.AutoMigrate(&models.Pedido{})
	db.AutoMigrate(&models.Venta{})
	return nil
}

func MigrateBillingDB(db *gorm.DB) error {
	db.AutoMigrate(&models.SubscriptionPlan{})
	db.AutoMigrate(&models.Subscription{})
	db.AutoMigrate(&models.Payment{})
	return nil
}
