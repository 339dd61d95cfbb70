// Package dashboard aggregates store KPIs for the back office.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

const (
	monthsOfSales     = 6
	topProductsLimit  = 5
	recentOrdersLimit = 10
)

var hundred = decimal.NewFromInt(100)

// Service provides the dashboard summary.
type Service interface {
	Summary(ctx context.Context, now time.Time) (*Summary, error)
}

type service struct {
	repo *Repository
}

// NewService builds a dashboard service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &service{repo: repo}, nil
}

// Summary runs every aggregate concurrently and fails if any of them fails.
func (s *service) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	now = now.UTC()
	out := &Summary{MonthlySales: make([]MonthlySales, monthsOfSales)}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountActiveProducts(gctx)
		out.ProductCount = n
		return wrap(err, "count products")
	})
	g.Go(func() error {
		n, err := s.repo.CountOrders(gctx)
		out.OrderCount = n
		return wrap(err, "count orders")
	})
	g.Go(func() error {
		n, err := s.repo.CountCustomers(gctx)
		out.CustomerCount = n
		return wrap(err, "count customers")
	})

	for i, start := range MonthStarts(now, monthsOfSales) {
		g.Go(func() error {
			bucket, err := s.repo.Revenue(gctx, start, start.AddDate(0, 1, 0))
			if err != nil {
				return wrap(err, "monthly revenue")
			}
			out.MonthlySales[i] = MonthlySales{
				Month:   start.Format("2006-01"),
				Revenue: bucket.Revenue,
				Orders:  bucket.Orders,
			}
			return nil
		})
	}

	g.Go(func() error {
		rows, err := s.repo.OrdersByStatus(gctx)
		out.OrdersByStatus = rows
		return wrap(err, "orders by status")
	})
	g.Go(func() error {
		rows, err := s.repo.TopProducts(gctx, topProductsLimit)
		out.TopProducts = rows
		return wrap(err, "top products")
	})
	g.Go(func() error {
		orders, err := s.repo.RecentOrders(gctx, recentOrdersLimit)
		if err != nil {
			return wrap(err, "recent orders")
		}
		out.RecentOrders = make([]RecentOrder, 0, len(orders))
		for _, o := range orders {
			row := RecentOrder{
				ID:          o.ID,
				OrderNumber: o.OrderNumber,
				Status:      o.Status,
				Total:       o.Total,
				CreatedAt:   o.CreatedAt,
			}
			if o.User != nil {
				row.CustomerName = o.User.Name
				if row.CustomerName == "" {
					row.CustomerName = o.User.Email
				}
			}
			if o.Payment != nil {
				method, status := o.Payment.Method, o.Payment.Status
				row.PaymentMethod = &method
				row.PaymentStatus = &status
			}
			out.RecentOrders = append(out.RecentOrders, row)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.RevenueThisMonth = out.MonthlySales[monthsOfSales-1].Revenue
	out.RevenueLastMonth = out.MonthlySales[monthsOfSales-2].Revenue
	out.RevenueTrend = Trend(out.RevenueThisMonth, out.RevenueLastMonth)
	return out, nil
}

// MonthStarts returns the first instant of the last n calendar months,
// oldest first, ending with the month containing now.
func MonthStarts(now time.Time, n int) []time.Time {
	now = now.UTC()
	out := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC))
	}
	return out
}

// Trend is the percentage change from previous to current, rounded to one
// decimal place. A zero previous month yields zero.
func Trend(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(1)
}

func wrap(err error, step string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
