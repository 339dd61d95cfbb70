package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
	"github.com/belacosmetics/storefront-backend/pkg/outbox/payloads"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultPendingPaymentTTL = 30 * time.Minute
	defaultBoletoGrace       = 72 * time.Hour
	defaultExpiryBatchSize   = 100
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PendingPaymentExpiryJobParams configure the unpaid order expiry job.
type PendingPaymentExpiryJobParams struct {
	Logger            *logger.Logger
	DB                txRunner
	Payments          *payments.Repository
	Orders            *orders.Repository
	Outbox            outboxEmitter
	PendingPaymentTTL time.Duration
	BoletoGrace       time.Duration
	BatchSize         int
}

// NewPendingPaymentExpiryJob builds the job that cancels PENDING orders whose
// payment window has closed.
func NewPendingPaymentExpiryJob(params PendingPaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	ttl := params.PendingPaymentTTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	grace := params.BoletoGrace
	if grace <= 0 {
		grace = defaultBoletoGrace
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatchSize
	}
	return &pendingPaymentExpiryJob{
		logg:     params.Logger,
		db:       params.DB,
		payments: params.Payments,
		orders:   params.Orders,
		outbox:   params.Outbox,
		ttl:      ttl,
		grace:    grace,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type pendingPaymentExpiryJob struct {
	logg     *logger.Logger
	db       txRunner
	payments *payments.Repository
	orders   *orders.Repository
	outbox   outboxEmitter
	ttl      time.Duration
	grace    time.Duration
	batch    int
	now      func() time.Time
}

func (j *pendingPaymentExpiryJob) Name() string { return "pending-payment-expiry" }

func (j *pendingPaymentExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoffs := payments.ExpiryCutoffs{
		Now:               now,
		BoletoDueBefore:   now.Add(-j.grace),
		CardCreatedBefore: now.Add(-j.ttl),
	}
	expired, err := j.payments.ListExpiredOpen(ctx, cutoffs, j.batch)
	if err != nil {
		return fmt.Errorf("query expired payments: %w", err)
	}

	var errs error
	count := 0
	for _, payment := range expired {
		cancelled, err := j.expire(ctx, payment, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", payment.OrderID, err))
			continue
		}
		if cancelled {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(expired),
		"cancelled":  count,
	})
	j.logg.Info(logCtx, "pending payment expiry loop complete")
	return errs
}

// expire cancels the payment and its order together. Locks are taken payment
// first, then order. Rows that moved on since the scan are left alone.
func (j *pendingPaymentExpiryJob) expire(ctx context.Context, candidate models.Payment, now time.Time) (bool, error) {
	var cancelled bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := j.payments.WithTx(tx)
		payment, err := paymentsRepo.LockByOrderID(ctx, candidate.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		ordersRepo := j.orders.WithTx(tx)
		order, err := ordersRepo.LockByID(ctx, candidate.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if order.Status != enums.OrderStatusPending || !payment.Status.IsOpen() {
			return nil
		}

		if err := paymentsRepo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusCancelled, nil); err != nil {
			return err
		}
		if err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: outbox.SystemActor},
			OccurredAt:    now,
			Data: payloads.OrderExpiredEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				ExpiredAt:   now,
			},
		}
		if err := j.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	return cancelled, err
}
