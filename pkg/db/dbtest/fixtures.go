package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedUser inserts a user with the given role.
func SeedUser(t testing.TB, conn *gorm.DB, name, email string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Name: name, Email: email, Role: role, CreatedAt: time.Now().UTC()}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedProduct inserts an active product.
func SeedProduct(t testing.TB, conn *gorm.DB, name string, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// OrderFixture describes an order and its optional payment.
type OrderFixture struct {
	UserID        uuid.UUID
	Number        string
	Status        enums.OrderStatus
	Total         string
	CreatedAt     time.Time
	PaymentMethod enums.PaymentMethod
	PaymentStatus enums.PaymentStatus
	ExternalID    string
}

// SeedOrder inserts an order with one line item and, when PaymentStatus is
// set, its payment.
func SeedOrder(t testing.TB, conn *gorm.DB, f OrderFixture) (*models.Order, *models.Payment) {
	t.Helper()
	if f.UserID == uuid.Nil {
		f.UserID = uuid.New()
	}
	if f.Number == "" {
		f.Number = "BC" + uuid.NewString()[:12]
	}
	if f.Status == "" {
		f.Status = enums.OrderStatusPending
	}
	if f.Total == "" {
		f.Total = "100"
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	total := decimal.RequireFromString(f.Total)

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     f.Number,
		UserID:          f.UserID,
		Status:          f.Status,
		Subtotal:        total,
		Discount:        decimal.Zero,
		ShippingCost:    decimal.Zero,
		Total:           total,
		ShippingName:    "Maria Silva",
		ShippingStreet:  "Rua Augusta",
		ShippingNumber:  "100",
		ShippingCity:    "Sao Paulo",
		ShippingState:   "SP",
		ShippingZipCode: "01310100",
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := &models.OrderItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductID:   uuid.New(),
		ProductName: "Serum",
		UnitPrice:   total,
		Quantity:    1,
		TotalPrice:  total,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
	order.Items = []models.OrderItem{*item}

	if f.PaymentStatus == "" {
		return order, nil
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = enums.PaymentMethodPix
	}
	payment := &models.Payment{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Method:    f.PaymentMethod,
		Status:    f.PaymentStatus,
		Amount:    total,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
	if f.ExternalID != "" {
		ext := f.ExternalID
		payment.ExternalID = &ext
	}
	if err := conn.Create(payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return order, payment
}
