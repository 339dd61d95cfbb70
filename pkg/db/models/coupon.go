package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// Coupon is a named discount rule. Code is stored uppercase.
type Coupon struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string              `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Description   *string             `gorm:"column:description" json:"description,omitempty"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;type:discount_type;not null" json:"discount_type"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null" json:"discount_value"`
	MinPurchase   decimal.NullDecimal `gorm:"column:min_purchase;type:numeric(12,2)" json:"min_purchase"`
	MaxDiscount   decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)" json:"max_discount"`
	UsageLimit    *int                `gorm:"column:usage_limit" json:"usage_limit,omitempty"`
	UsageCount    int                 `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	IsActive      bool                `gorm:"column:is_active;not null" json:"is_active"`
	StartsAt      time.Time           `gorm:"column:starts_at;not null" json:"starts_at"`
	ExpiresAt     *time.Time          `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
