package models

import "time"

type Producto struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64  `gorm:"index;not null"`
	ProductName    string `gorm:"type:varchar(128);not null"`
	ProductPrice   string `gorm:"type:varchar(32);not null"`
	// Stock is nil for service-type items; tracked stock is a decimal string
	// because linked-product decrements can be fractional.
	Stock      *string `gorm:"type:varchar(32)"`
	ImagePath  *string `gorm:"type:varchar(256)"`
	Variations VariationGroups `gorm:"type:jsonb"`
	IsActive   bool    `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	LinkedProducts []ProductoVinculado `gorm:"foreignKey:ParentProductID"`
}

// ProductoVinculado is a bill-of-materials entry: selling one unit of the
// parent consumes QuantityPerUnit units of the child.
type ProductoVinculado struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID  int64  `gorm:"index;not null"`
	ParentProductID int64  `gorm:"index;not null"`
	ChildProductID  int64  `gorm:"not null"`
	QuantityPerUnit string `gorm:"type:varchar(32);not null"`
	CreatedAt       time.Time

	Child *Producto `gorm:"foreignKey:ChildProductID"`
}

type Topping struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64   `gorm:"index;not null"`
	ToppingName    string  `gorm:"type:varchar(128);not null"`
	Price          string  `gorm:"type:varchar(32);not null"`
	Stock          *string `gorm:"type:varchar(32)"`
	ToppingType    string  `gorm:"type:varchar(16);not null;default:'food'"` // food | service
	IsActive       bool    `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Mesa struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64  `gorm:"index;not null"`
	Label          string `gorm:"type:varchar(32);not null"`
	Capacity       int32  `gorm:"not null;default:4"`
	Shape          string `gorm:"type:varchar(16);not null;default:'square'"`
	Width          int32  `gorm:"not null;default:80"`
	Height         int32  `gorm:"not null;default:80"`
	Status         string `gorm:"type:varchar(16);not null;default:'available'"` // available | occupied | reserved | maintenance
	PosX           int32  `gorm:"not null;default:0"`
	PosY           int32  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
