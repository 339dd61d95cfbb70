package orders

import (
	"context"
	"strings"

	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/belacosmetics/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListParams filters the admin order list.
type ListParams struct {
	Search string
	Status *enums.OrderStatus
	Page   int
	Limit  int
}

// ListResult is one page of orders.
type ListResult struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// Repository persists orders and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds an order repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// LockByID loads the bare order row with a row lock.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with items, payment, coupon and customer.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Preload("Coupon").
		Preload("User").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List pages through orders newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()

	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if params.Status != nil {
			q = q.Where("orders.status = ?", *params.Status)
		}
		if search := strings.ToLower(strings.TrimSpace(params.Search)); search != "" {
			like := "%" + likeEscaper.Replace(search) + "%"
			q = q.Joins("LEFT JOIN users ON users.id = orders.user_id").
				Where(`LOWER(orders.order_number) LIKE ? ESCAPE '\' OR LOWER(users.name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\'`, like, like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	err := filtered().
		Preload("User").
		Preload("Payment").
		Order("orders.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &ListResult{Orders: orders, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// UpdateFields applies a partial update to the order row.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus sets status alone.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.UpdateFields(ctx, id, map[string]any{"status": status})
}
