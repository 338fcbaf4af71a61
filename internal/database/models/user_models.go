package models

import "time"

type Organization struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"type:varchar(128);not null"`
	OwnerEmail     string `gorm:"type:varchar(128);not null"`
	SubscriptionID *int64 `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type User struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrganizationID int64  `gorm:"index;not null"`
	Username       string `gorm:"uniqueIndex;not null"`
	Email          string `gorm:"uniqueIndex;not null"`
	Password       string `gorm:"not null"`
	IsActive       bool   `gorm:"default:true"`
	LastLogin      *time.Time
	CreatedAt      *time.Time `gorm:"autoCreateTime"`
	UpdatedAt      *time.Time `gorm:"autoUpdateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}
