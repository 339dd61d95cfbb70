package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingZone prices delivery for a CEP range.
type ShippingZone struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string              `gorm:"column:name;not null" json:"name"`
	ZipCodeStart    string              `gorm:"column:zip_code_start;not null" json:"zip_code_start"`
	ZipCodeEnd      string              `gorm:"column:zip_code_end;not null" json:"zip_code_end"`
	BasePrice       decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null" json:"base_price"`
	PricePerKg      decimal.Decimal     `gorm:"column:price_per_kg;type:numeric(12,2);not null" json:"price_per_kg"`
	FreeShippingMin decimal.NullDecimal `gorm:"column:free_shipping_min;type:numeric(12,2)" json:"free_shipping_min"`
	EstimatedDays   int                 `gorm:"column:estimated_days;not null" json:"estimated_days"`
	IsActive        bool                `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
