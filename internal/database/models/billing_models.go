package models

import "time"

type SubscriptionPlan struct {
	ID               int32       `gorm:"primaryKey;autoIncrement"`
	PlanName         string      `gorm:"type:varchar(64);uniqueIndex;not null"`
	MaxProducts      int32       `gorm:"not null"` // 0 = unlimited
	MaxSalesPerMonth int32       `gorm:"not null"` // 0 = unlimited
	Features         StringArray `gorm:"type:jsonb"`
	PriceMonthly     string      `gorm:"type:varchar(32);not null"`
	PriceYearly      string      `gorm:"type:varchar(32);not null"`
	IsActive         bool        `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionExpired  = "expired"
)

type Subscription struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	OrganizationID   int64     `gorm:"index;not null"`
	PlanID           int32     `gorm:"not null"`
	Status           string    `gorm:"type:varchar(16);not null;default:'active'"`
	BillingCycle     string    `gorm:"type:varchar(16);not null;default:'monthly'"` // monthly | yearly
	CurrentPeriodEnd time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID"`
}

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentApproved  = "approved"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Payment is the locally recorded intent reconciled by the gateway webhook.
type Payment struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64   `gorm:"index;not null"`
	SubscriptionID *int64  `gorm:"index"`
	PlanID         int32   `gorm:"not null"`
	Reference      string  `gorm:"type:varchar(64);index;not null"`
	TransactionID  *string `gorm:"type:varchar(64);index"`
	Amount         string  `gorm:"type:varchar(32);not null"`
	Status         string  `gorm:"type:varchar(16);not null;default:'pending'"`
	BillingCycle   string  `gorm:"type:varchar(16);not null;default:'monthly'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
