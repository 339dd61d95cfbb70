package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// Payment is the local record of the gateway payment for an order (1:1).
type Payment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex" json:"order_id"`
	Method     enums.PaymentMethod `gorm:"column:method;type:payment_method;not null" json:"method"`
	Status     enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'" json:"status"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	ExternalID *string             `gorm:"column:external_id;uniqueIndex" json:"external_id,omitempty"`

	CardLastFour *string `gorm:"column:card_last_four" json:"card_last_four,omitempty"`
	CardBrand    *string `gorm:"column:card_brand" json:"card_brand,omitempty"`
	Installments *int    `gorm:"column:installments" json:"installments,omitempty"`

	PixCode      *string    `gorm:"column:pix_code" json:"pix_code,omitempty"`
	PixQRCode    *string    `gorm:"column:pix_qr_code" json:"pix_qr_code,omitempty"`
	PixExpiresAt *time.Time `gorm:"column:pix_expires_at" json:"pix_expires_at,omitempty"`

	BoletoURL     *string    `gorm:"column:boleto_url" json:"boleto_url,omitempty"`
	BoletoBarcode *string    `gorm:"column:boleto_barcode" json:"boleto_barcode,omitempty"`
	BoletoDueDate *time.Time `gorm:"column:boleto_due_date" json:"boleto_due_date,omitempty"`

	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
