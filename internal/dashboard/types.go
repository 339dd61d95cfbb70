package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// MonthlySales is one calendar month of revenue-bearing orders.
type MonthlySales struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// StatusCount is the number of orders currently in a status.
type StatusCount struct {
	Status enums.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// TopProduct ranks products by units sold.
type TopProduct struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// RecentOrder is the dashboard row for a recently placed order.
type RecentOrder struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"order_number"`
	CustomerName  string               `json:"customer_name"`
	Status        enums.OrderStatus    `json:"status"`
	Total         decimal.Decimal      `json:"total"`
	CreatedAt     time.Time            `json:"created_at"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method"`
	PaymentStatus *enums.PaymentStatus `json:"payment_status"`
}

// Summary is the back office landing page payload.
type Summary struct {
	ProductCount     int64           `json:"product_count"`
	OrderCount       int64           `json:"order_count"`
	CustomerCount    int64           `json:"customer_count"`
	RevenueThisMonth decimal.Decimal `json:"revenue_this_month"`
	RevenueLastMonth decimal.Decimal `json:"revenue_last_month"`
	RevenueTrend     decimal.Decimal `json:"revenue_trend"`
	MonthlySales     []MonthlySales  `json:"monthly_sales"`
	OrdersByStatus   []StatusCount   `json:"orders_by_status"`
	TopProducts      []TopProduct    `json:"top_products"`
	RecentOrders     []RecentOrder   `json:"recent_orders"`
}
