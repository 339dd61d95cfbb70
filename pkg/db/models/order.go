package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// Order is the customer's purchase record with a frozen price snapshot.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber  string            `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	CouponID     *uuid.UUID        `gorm:"column:coupon_id;type:uuid" json:"coupon_id,omitempty"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'" json:"status"`
	Subtotal     decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Discount     decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null" json:"discount"`
	ShippingCost decimal.Decimal   `gorm:"column:shipping_cost;type:numeric(12,2);not null" json:"shipping_cost"`
	Total        decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null" json:"total"`

	Notes          *string `gorm:"column:notes" json:"notes,omitempty"`
	TrackingNumber *string `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	TrackingURL    *string `gorm:"column:tracking_url" json:"tracking_url,omitempty"`

	ShippingName       string  `gorm:"column:shipping_name;not null" json:"shipping_name"`
	ShippingStreet     string  `gorm:"column:shipping_street;not null" json:"shipping_street"`
	ShippingNumber     string  `gorm:"column:shipping_number;not null" json:"shipping_number"`
	ShippingComplement *string `gorm:"column:shipping_complement" json:"shipping_complement,omitempty"`
	ShippingDistrict   string  `gorm:"column:shipping_district;not null" json:"shipping_district"`
	ShippingCity       string  `gorm:"column:shipping_city;not null" json:"shipping_city"`
	ShippingState      string  `gorm:"column:shipping_state;not null" json:"shipping_state"`
	ShippingZipCode    string  `gorm:"column:shipping_zip_code;not null" json:"shipping_zip_code"`

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	Coupon  *Coupon     `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	User    *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
