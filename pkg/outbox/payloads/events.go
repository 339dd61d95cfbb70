package payloads

import (
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CouponCode    *string             `json:"coupon_code,omitempty"`
}

// OrderStatusChangedEvent is emitted when an admin moves an order through its lifecycle.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
	TrackingURL    *string           `json:"tracking_url,omitempty"`
}

// OrderExpiredEvent is emitted when an unpaid order is cancelled by the expiry job.
type OrderExpiredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ExpiredAt   time.Time `json:"expired_at"`
}

// PaymentStatusChangedEvent is emitted when a gateway notification changes a payment.
type PaymentStatusChangedEvent struct {
	PaymentID         uuid.UUID           `json:"payment_id"`
	OrderID           uuid.UUID           `json:"order_id"`
	ExternalID        string              `json:"external_id"`
	GatewayStatus     string              `json:"gateway_status"`
	PaymentStatusFrom enums.PaymentStatus `json:"payment_status_from"`
	PaymentStatusTo   enums.PaymentStatus `json:"payment_status_to"`
	OrderStatusFrom   enums.OrderStatus   `json:"order_status_from"`
	OrderStatusTo     enums.OrderStatus   `json:"order_status_to"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
}
