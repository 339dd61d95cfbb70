// Package mercadopagowebhook reconciles local payments and orders with the
// payment status reported by the gateway.
package mercadopagowebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/mercadopago"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
	"github.com/belacosmetics/storefront-backend/pkg/outbox/payloads"
	"gorm.io/gorm"
)

const defaultStatusTimeout = 10 * time.Second

type gatewayClient interface {
	GetPaymentStatus(ctx context.Context, externalID string) (*mercadopago.PaymentStatus, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the reconciler.
type ServiceParams struct {
	Payments      *payments.Repository
	Orders        *orders.Repository
	Gateway       gatewayClient
	Transactions  txRunner
	Outbox        outboxPublisher
	Logger        *logger.Logger
	StatusTimeout time.Duration
}

// Result describes what a reconcile run did.
type Result struct {
	Outcome       string
	GatewayStatus string
}

// Service applies gateway notifications.
type Service struct {
	payments      *payments.Repository
	orders        *orders.Repository
	gateway       gatewayClient
	tx            txRunner
	outbox        outboxPublisher
	logg          *logger.Logger
	statusTimeout time.Duration
	now           func() time.Time
}

// NewService validates params and builds the reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	timeout := params.StatusTimeout
	if timeout <= 0 {
		timeout = defaultStatusTimeout
	}
	return &Service{
		payments:      params.Payments,
		orders:        params.Orders,
		gateway:       params.Gateway,
		tx:            params.Transactions,
		outbox:        params.Outbox,
		logg:          params.Logger,
		statusTimeout: timeout,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Reconcile fetches the authoritative status for the notified payment and
// overwrites the local payment/order pair in one transaction. Replays leave
// the state untouched.
func (s *Service) Reconcile(ctx context.Context, n Notification) (Result, error) {
	if n.Type != NotificationTypePayment {
		s.info(ctx, "webhook.mercadopago.ignored", map[string]any{"type": n.Type})
		return Result{Outcome: metrics.WebhookOutcomeIgnored}, nil
	}
	if n.DataID == "" {
		return Result{Outcome: metrics.WebhookOutcomeFailed}, pkgerrors.New(pkgerrors.CodeValidation, "notification data.id required")
	}
	if s.logg != nil {
		ctx = s.logg.WithPaymentID(ctx, n.DataID)
	}

	status, err := s.fetchStatus(ctx, n.DataID)
	if err != nil {
		return Result{Outcome: metrics.WebhookOutcomeFailed}, err
	}
	result := Result{GatewayStatus: status.Status}

	if _, err := s.payments.FindByExternalID(ctx, n.DataID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Outcome = metrics.WebhookOutcomeNotFound
			return result, pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found").
				WithDetails(map[string]string{"externalId": n.DataID})
		}
		result.Outcome = metrics.WebhookOutcomeFailed
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	var changed bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		changed, applyErr = s.apply(ctx, tx, n.DataID, status.Status)
		return applyErr
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			result.Outcome = metrics.WebhookOutcomeNotFound
		} else {
			result.Outcome = metrics.WebhookOutcomeFailed
		}
		return result, err
	}

	if changed {
		result.Outcome = metrics.WebhookOutcomeApplied
	} else {
		result.Outcome = metrics.WebhookOutcomeUnchanged
	}
	s.info(ctx, "webhook.mercadopago."+result.Outcome, map[string]any{
		"external_id":    n.DataID,
		"gateway_status": status.Status,
	})
	return result, nil
}

func (s *Service) fetchStatus(ctx context.Context, externalID string) (*mercadopago.PaymentStatus, error) {
	statusCtx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	status, err := s.gateway.GetPaymentStatus(statusCtx, externalID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(statusCtx.Err(), context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway status lookup timed out")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch gateway payment status")
	}
	if status == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no payment status")
	}
	return status, nil
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, externalID, gatewayStatus string) (bool, error) {
	paymentRepo := s.payments.WithTx(tx)
	orderRepo := s.orders.WithTx(tx)

	payment, err := paymentRepo.LockByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
	}
	order, err := orderRepo.LockByID(ctx, payment.OrderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}

	nextPayment, nextOrder, mapped := MapStatus(gatewayStatus, payment.Status, order.Status)
	if !mapped {
		s.info(ctx, "webhook.mercadopago.unmapped_status", map[string]any{
			"external_id":    externalID,
			"gateway_status": gatewayStatus,
		})
		return false, nil
	}

	paidAt := payment.PaidAt
	switch {
	case nextPayment != enums.PaymentStatusPaid:
		paidAt = nil
	case payment.Status != enums.PaymentStatusPaid || paidAt == nil:
		now := s.now()
		paidAt = &now
	}

	if nextPayment == payment.Status && nextOrder == order.Status && samePaidAt(paidAt, payment.PaidAt) {
		return false, nil
	}

	if err := paymentRepo.UpdateStatus(ctx, payment.ID, nextPayment, paidAt); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	if nextOrder != order.Status {
		if err := orderRepo.UpdateStatus(ctx, order.ID, nextOrder); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventPaymentStatusChanged,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         &outbox.ActorRef{Role: outbox.SystemActor},
		Data: payloads.PaymentStatusChangedEvent{
			PaymentID:         payment.ID,
			OrderID:           order.ID,
			ExternalID:        externalID,
			GatewayStatus:     gatewayStatus,
			PaymentStatusFrom: payment.Status,
			PaymentStatusTo:   nextPayment,
			OrderStatusFrom:   order.Status,
			OrderStatusTo:     nextOrder,
			PaidAt:            paidAt,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payment status event")
	}
	return true, nil
}

func samePaidAt(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (s *Service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}
