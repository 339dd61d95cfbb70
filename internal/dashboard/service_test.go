package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belacosmetics/storefront-backend/pkg/db/dbtest"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestSummaryAggregatesStore(t *testing.T) {
	conn := dbtest.Open(t)
	customer := dbtest.SeedUser(t, conn, "Ana Souza", "ana@example.com", enums.UserRoleCustomer)
	dbtest.SeedUser(t, conn, "Bia Lima", "bia@example.com", enums.UserRoleCustomer)
	dbtest.SeedUser(t, conn, "Admin", "admin@example.com", enums.UserRoleAdmin)

	dbtest.SeedProduct(t, conn, "Serum", "49.90", 5)
	dbtest.SeedProduct(t, conn, "Toner", "29.90", 5)
	hidden := dbtest.SeedProduct(t, conn, "Old", "9.90", 0)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	seed := func(status enums.OrderStatus, total string, at time.Time) *models.Order {
		order, _ := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{UserID: customer.ID, Status: status, Total: total, CreatedAt: at})
		return order
	}
	confirmed := seed(enums.OrderStatusConfirmed, "100", day(2025, 3, 10))
	seed(enums.OrderStatusPending, "50", day(2025, 3, 12))
	latest, _ := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{
		UserID:        customer.ID,
		Status:        enums.OrderStatusCancelled,
		Total:         "70",
		CreatedAt:     day(2025, 3, 14),
		PaymentStatus: enums.PaymentStatusCancelled,
	})
	seed(enums.OrderStatusDelivered, "120", day(2025, 2, 3))
	seed(enums.OrderStatusRefunded, "30", day(2025, 2, 4))
	seed(enums.OrderStatusShipped, "40", day(2024, 10, 20))
	seed(enums.OrderStatusDelivered, "999", day(2024, 9, 30))

	require.NoError(t, conn.Create(&models.OrderItem{
		ID:          uuid.New(),
		OrderID:     confirmed.ID,
		ProductID:   uuid.New(),
		ProductName: "Toner",
		UnitPrice:   decimal.NewFromInt(10),
		Quantity:    5,
		TotalPrice:  decimal.NewFromInt(50),
	}).Error)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), day(2025, 3, 15))
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.ProductCount)
	assert.EqualValues(t, 7, summary.OrderCount)
	assert.EqualValues(t, 2, summary.CustomerCount)

	require.Len(t, summary.MonthlySales, 6)
	assert.Equal(t, "2024-10", summary.MonthlySales[0].Month)
	assert.True(t, summary.MonthlySales[0].Revenue.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "2025-03", summary.MonthlySales[5].Month)
	assert.EqualValues(t, 2, summary.MonthlySales[5].Orders)
	assert.True(t, summary.MonthlySales[2].Revenue.IsZero())

	assert.True(t, summary.RevenueThisMonth.Equal(decimal.NewFromInt(150)), "this month %s", summary.RevenueThisMonth)
	assert.True(t, summary.RevenueLastMonth.Equal(decimal.NewFromInt(120)), "last month %s", summary.RevenueLastMonth)
	assert.True(t, summary.RevenueTrend.Equal(decimal.NewFromInt(25)), "trend %s", summary.RevenueTrend)

	byStatus := map[enums.OrderStatus]int64{}
	for _, row := range summary.OrdersByStatus {
		byStatus[row.Status] = row.Count
	}
	assert.Equal(t, map[enums.OrderStatus]int64{
		enums.OrderStatusPending:   1,
		enums.OrderStatusConfirmed: 1,
		enums.OrderStatusShipped:   1,
		enums.OrderStatusDelivered: 2,
		enums.OrderStatusCancelled: 1,
		enums.OrderStatusRefunded:  1,
	}, byStatus)

	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, TopProduct{Name: "Serum", Quantity: 7}, summary.TopProducts[0])
	assert.Equal(t, TopProduct{Name: "Toner", Quantity: 5}, summary.TopProducts[1])

	require.Len(t, summary.RecentOrders, 7)
	first := summary.RecentOrders[0]
	assert.Equal(t, latest.ID, first.ID)
	assert.Equal(t, "Ana Souza", first.CustomerName)
	require.NotNil(t, first.PaymentStatus)
	assert.Equal(t, enums.PaymentStatusCancelled, *first.PaymentStatus)
	assert.Nil(t, summary.RecentOrders[1].PaymentMethod)
}

func TestTrend(t *testing.T) {
	cases := []struct {
		current, previous, want string
	}{
		{"150", "120", "25"},
		{"90", "120", "-25"},
		{"10", "0", "0"},
		{"100", "30", "233.3"},
	}
	for _, tc := range cases {
		got := Trend(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.previous))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s vs %s: got %s", tc.current, tc.previous, got)
	}
}

func TestMonthStartsCrossesYearBoundary(t *testing.T) {
	starts := MonthStarts(time.Date(2025, 1, 20, 18, 0, 0, 0, time.UTC), 3)
	require.Len(t, starts, 3)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), starts[0])
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), starts[1])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), starts[2])
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
