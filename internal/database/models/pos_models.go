package models

import "time"

// Pedido statuses.
const (
	PedidoPending       = "pending"
	PedidoInPreparation = "in_preparation"
	PedidoReady         = "ready"
	PedidoCompleted     = "completed"
	PedidoCancelled     = "cancelled"
)

type Pedido struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64     `gorm:"index;not null"`
	MesaID         *int64    `gorm:"index"`
	Status         string    `gorm:"type:varchar(16);not null;default:'pending'"`
	PagoInmediato  bool      `gorm:"not null;default:false"`
	Items          SaleItems `gorm:"type:jsonb;not null"`
	VentaID        *int64    `gorm:"index"`
	Notes          *string   `gorm:"type:text"`
	CreatedAt      time.Time
	StatusChangedAt time.Time `gorm:"not null"`

	Mesa *Mesa `gorm:"foreignKey:MesaID"`
}

// Venta is immutable once inserted; only venta_id back-links on pedidos are
// written afterwards.
type Venta struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64  `gorm:"uniqueIndex:idx_org_code;not null"`
	Code           string `gorm:"uniqueIndex:idx_org_code;type:varchar(32);not null"`

	Items          SaleItems        `gorm:"type:jsonb;not null"`
	Subtotal       string           `gorm:"type:varchar(32);not null"`
	DiscountAmount string           `gorm:"type:varchar(32);not null"`
	TaxAmount      string           `gorm:"type:varchar(32);not null"`
	TotalAmount    string           `gorm:"type:varchar(32);not null"`
	Discount       *DiscountDetail  `gorm:"type:jsonb"`
	PaymentMethod  string           `gorm:"type:varchar(32);not null"`
	Breakdown      PaymentBreakdown `gorm:"type:jsonb"`

	CreatedAt time.Time
}
