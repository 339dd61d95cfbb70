package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// Repository runs the aggregate reads behind the dashboard.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a dashboard repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RevenueBucket aggregates revenue-bearing orders in a window.
type RevenueBucket struct {
	Revenue decimal.Decimal
	Orders  int64
}

func (r *Repository) CountActiveProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", enums.UserRoleCustomer).Count(&n).Error
	return n, err
}

// Revenue sums totals of orders created in [from, to), ignoring cancelled
// and refunded orders.
func (r *Repository) Revenue(ctx context.Context, from, to time.Time) (RevenueBucket, error) {
	var row RevenueBucket
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status NOT IN ?", nonRevenueStatuses()).
		Scan(&row).Error
	return row, err
}

func (r *Repository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks order item names by quantity sold.
func (r *Repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("product_name AS name, SUM(quantity) AS quantity").
		Group("product_name").
		Order("SUM(quantity) DESC, product_name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Payment").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func nonRevenueStatuses() []enums.OrderStatus {
	var out []enums.OrderStatus
	for _, status := range enums.OrderStatuses() {
		if !status.CountsAsRevenue() {
			out = append(out, status)
		}
	}
	return out
}
