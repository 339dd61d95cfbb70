package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product holds the catalog fields checkout snapshots into order items.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string              `gorm:"column:name;not null" json:"name"`
	Slug      string              `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock     int                 `gorm:"column:stock;not null;default:0" json:"stock"`
	ImageURL  *string             `gorm:"column:image_url" json:"image_url,omitempty"`
	WeightKg  decimal.NullDecimal `gorm:"column:weight_kg;type:numeric(8,3)" json:"weight_kg"`
	IsActive  bool                `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
