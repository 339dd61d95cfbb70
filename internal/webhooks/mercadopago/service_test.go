package mercadopagowebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/dbtest"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/mercadopago"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGateway struct {
	status string
	err    error
	block  bool
	calls  int
}

func (s *stubGateway) GetPaymentStatus(ctx context.Context, _ string) (*mercadopago.PaymentStatus, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &mercadopago.PaymentStatus{Status: s.status}, nil
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

type fixture struct {
	svc     *Service
	conn    *gorm.DB
	gateway *stubGateway
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	gateway := &stubGateway{}
	svc, err := NewService(ServiceParams{
		Payments:      payments.NewRepository(conn),
		Orders:        orders.NewRepository(conn),
		Gateway:       gateway,
		Transactions:  db.Wrap(conn),
		Outbox:        outbox.NewService(outbox.NewRepository(conn), nil),
		StatusTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	f := &fixture{svc: svc, conn: conn, gateway: gateway, now: time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) state(t *testing.T, paymentID, orderID any) (models.Payment, models.Order) {
	t.Helper()
	var p models.Payment
	var o models.Order
	require.NoError(t, f.conn.First(&p, "id = ?", paymentID).Error)
	require.NoError(t, f.conn.First(&o, "id = ?", orderID).Error)
	return p, o
}

func (f *fixture) outboxCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Count(&n).Error)
	return n
}

func paymentNotification(id string) Notification {
	return Notification{Type: NotificationTypePayment, DataID: id}
}

func TestReconcileIgnoresNonPaymentTypes(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Reconcile(context.Background(), Notification{Type: "merchant_order", DataID: "1"})
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookOutcomeIgnored, res.Outcome)
	assert.Zero(t, f.gateway.calls)
}

func TestReconcileApprovedThenReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "123456"})
	f.gateway.status = mercadopago.StatusApproved

	res, err := f.svc.Reconcile(ctx, paymentNotification("123456"))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookOutcomeApplied, res.Outcome)
	assert.Equal(t, "approved", res.GatewayStatus)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, p.Status)
	assert.Equal(t, enums.OrderStatusConfirmed, o.Status)
	require.NotNil(t, p.PaidAt)
	firstPaidAt := *p.PaidAt
	assert.True(t, f.now.Equal(firstPaidAt))
	assert.EqualValues(t, 1, f.outboxCount(t))

	f.now = f.now.Add(time.Hour)
	res, err = f.svc.Reconcile(ctx, paymentNotification("123456"))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookOutcomeUnchanged, res.Outcome)

	p, o = f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, p.Status)
	assert.Equal(t, enums.OrderStatusConfirmed, o.Status)
	require.NotNil(t, p.PaidAt)
	assert.True(t, firstPaidAt.Equal(*p.PaidAt), "replay must not reassign paid_at")
	assert.EqualValues(t, 1, f.outboxCount(t))
}

func TestReconcileRejectedCancelsOrder(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusProcessing, ExternalID: "555"})
	f.gateway.status = mercadopago.StatusRejected

	_, err := f.svc.Reconcile(context.Background(), paymentNotification("555"))
	require.NoError(t, err)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusFailed, p.Status)
	assert.Equal(t, enums.OrderStatusCancelled, o.Status)
	assert.Nil(t, p.PaidAt)
}

func TestReconcileRefundClearsPaidAtAndIgnoresAdminTable(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid, ExternalID: "777"})
	paid := f.now.Add(-time.Hour)
	require.NoError(t, f.conn.Model(&models.Payment{}).Where("id = ?", payment.ID).Update("paid_at", paid).Error)

	f.gateway.status = mercadopago.StatusRefunded
	_, err := f.svc.Reconcile(context.Background(), paymentNotification("777"))
	require.NoError(t, err)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusRefunded, p.Status)
	assert.Equal(t, enums.OrderStatusRefunded, o.Status)
	assert.Nil(t, p.PaidAt)

	// The gateway is authoritative: REFUNDED -> PENDING is outside the admin table.
	f.gateway.status = mercadopago.StatusPending
	_, err = f.svc.Reconcile(context.Background(), paymentNotification("777"))
	require.NoError(t, err)
	p, o = f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusProcessing, p.Status)
	assert.Equal(t, enums.OrderStatusPending, o.Status)
}

func TestReconcileUnknownPaymentTouchesNothing(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "known"})
	f.gateway.status = mercadopago.StatusApproved

	res, err := f.svc.Reconcile(context.Background(), paymentNotification("unknown"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Payment not found", pkgerrors.As(err).Message())
	assert.Equal(t, metrics.WebhookOutcomeNotFound, res.Outcome)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusPending, p.Status)
	assert.Equal(t, enums.OrderStatusPending, o.Status)
	assert.Zero(t, f.outboxCount(t))
}

func TestReconcileUnmappedStatusLeavesPair(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusProcessing, ExternalID: "42"})
	f.gateway.status = mercadopago.StatusInMediation

	res, err := f.svc.Reconcile(context.Background(), paymentNotification("42"))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookOutcomeUnchanged, res.Outcome)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusProcessing, p.Status)
	assert.Equal(t, enums.OrderStatusPending, o.Status)
	assert.Zero(t, f.outboxCount(t))
}

func TestReconcileGatewayTimeoutIsTransient(t *testing.T) {
	f := newFixture(t)
	f.gateway.block = true

	_, err := f.svc.Reconcile(context.Background(), paymentNotification("1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.True(t, pkgerrors.MetadataFor(pkgerrors.CodeOf(err)).Retryable)
}

func TestReconcileGatewayErrorIsDependency(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("connection refused")

	_, err := f.svc.Reconcile(context.Background(), paymentNotification("1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestReconcileRequiresDataID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), Notification{Type: NotificationTypePayment})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.gateway.calls)
}

func TestReconcileRollsBackPaymentWhenOutboxFails(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "777"})
	f.gateway.status = mercadopago.StatusApproved
	f.svc.outbox = failingOutbox{}

	res, err := f.svc.Reconcile(context.Background(), paymentNotification("777"))
	require.Error(t, err)
	assert.Equal(t, metrics.WebhookOutcomeFailed, res.Outcome)

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
	assert.Equal(t, enums.OrderStatusPending, o.Status)
	assert.Zero(t, f.outboxCount(t))
}

func TestReconcileRollsBackPaymentWhenOrderUpdateFails(t *testing.T) {
	f := newFixture(t)
	order, payment := dbtest.SeedOrder(t, f.conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "778"})
	f.gateway.status = mercadopago.StatusApproved
	require.NoError(t, f.conn.Callback().Update().Before("gorm:update").Register("storefront:fail_order_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "orders" {
			_ = tx.AddError(errors.New("orders table unavailable"))
		}
	}))

	_, err := f.svc.Reconcile(context.Background(), paymentNotification("778"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	p, o := f.state(t, payment.ID, order.ID)
	assert.Equal(t, enums.PaymentStatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
	assert.Equal(t, enums.OrderStatusPending, o.Status)
	assert.Zero(t, f.outboxCount(t))
}
