// Package checkout turns a storefront cart into a PENDING order with an open
// gateway payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/belacosmetics/storefront-backend/internal/coupons"
	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/internal/pricing"
	"github.com/belacosmetics/storefront-backend/pkg/auth"
	pkgcheckout "github.com/belacosmetics/storefront-backend/pkg/checkout"
	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/mercadopago"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
	"github.com/belacosmetics/storefront-backend/pkg/outbox/payloads"
	"github.com/belacosmetics/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix      = "BC"
	orderNumberRandomLen   = 6
	orderNumberMaxAttempts = 3
	defaultPendingTTL      = 30 * time.Minute
	compensationTimeout    = 10 * time.Second
)

// orderNumberConstraints covers the postgres index name and the sqlite message.
var orderNumberConstraints = []string{"ux_orders_order_number", "orders.order_number"}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreatePayment(ctx context.Context, input mercadopago.CreatePaymentInput) (*mercadopago.CreatedPayment, error)
	VoidPayment(ctx context.Context, externalID, status string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type cartQuoter interface {
	Apply(ctx context.Context, input pricing.QuoteInput) (pricing.Breakdown, error)
}

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Address is the delivery address copied onto the order.
type Address struct {
	Name       string
	Street     string
	Number     string
	Complement *string
	District   string
	City       string
	State      string
	ZipCode    string
}

// Input is a checkout request.
type Input struct {
	Items           []ItemInput
	CouponCode      *string
	PaymentMethod   enums.PaymentMethod
	Installments    *int
	CardToken       *string
	PayerCPF        *string
	ShippingAddress Address
	Notes           *string
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Repository        *Repository
	Orders            *orders.Repository
	Payments          *payments.Repository
	Coupons           *coupons.Repository
	Users             userFinder
	Quoter            cartQuoter
	Gateway           paymentGateway
	Transactions      txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
	PendingPaymentTTL time.Duration
}

// QuoteInput is a cart preview request.
type QuoteInput struct {
	Items      []ItemInput
	CouponCode *string
	PostalCode string
}

// Service places orders and prices carts.
type Service interface {
	Checkout(ctx context.Context, actor auth.Principal, input Input) (*models.Order, error)
	Quote(ctx context.Context, input QuoteInput) (pricing.Breakdown, error)
}

type service struct {
	repo           *Repository
	orders         *orders.Repository
	payments       *payments.Repository
	coupons        *coupons.Repository
	users          userFinder
	quoter         cartQuoter
	gateway        paymentGateway
	tx             txRunner
	outbox         outboxPublisher
	logg           *logger.Logger
	pendingTTL     time.Duration
	now            func() time.Time
	newOrderNumber func(now time.Time) (string, error)
}

// NewService validates params and builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Quoter == nil {
		return nil, fmt.Errorf("pricing quoter required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	ttl := params.PendingPaymentTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &service{
		repo:           params.Repository,
		orders:         params.Orders,
		payments:       params.Payments,
		coupons:        params.Coupons,
		users:          params.Users,
		quoter:         params.Quoter,
		gateway:        params.Gateway,
		tx:             params.Transactions,
		outbox:         params.Outbox,
		logg:           params.Logger,
		pendingTTL:     ttl,
		now:            func() time.Time { return time.Now().UTC() },
		newOrderNumber: GenerateOrderNumber,
	}, nil
}

// GenerateOrderNumber returns BC + YYMMDD + six random uppercase alphanumerics.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix, err := security.RandomString(orderNumberRandomLen, security.UpperAlphanumeric)
	if err != nil {
		return "", err
	}
	return orderNumberPrefix + now.UTC().Format("060102") + suffix, nil
}

func (s *service) Checkout(ctx context.Context, actor auth.Principal, input Input) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, address, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := pkgcheckout.ValidateStock(stockInputs(items, products)); err != nil {
		return nil, err
	}

	breakdown, err := s.quoter.Apply(ctx, pricing.QuoteInput{
		Items:      pricedLines(items, products),
		CouponCode: input.CouponCode,
		PostalCode: address.ZipCode,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	draft := orderDraft{
		id:        uuid.New(),
		userID:    user.ID,
		actor:     actor,
		items:     items,
		products:  products,
		breakdown: breakdown,
		address:   address,
		notes:     trimmedOrNil(input.Notes),
		method:    input.PaymentMethod,
		now:       now,
	}
	if err := s.reserveWithRetry(ctx, &draft); err != nil {
		return nil, err
	}

	installments := 0
	if input.Installments != nil {
		installments = *input.Installments
	}
	created, err := s.gateway.CreatePayment(ctx, mercadopago.CreatePaymentInput{
		OrderID:      draft.id,
		OrderNumber:  draft.number,
		Amount:       breakdown.Total,
		PayerEmail:   user.Email,
		PayerName:    user.Name,
		PayerCPF:     input.PayerCPF,
		Method:       input.PaymentMethod,
		Installments: installments,
		CardToken:    input.CardToken,
	})
	if err != nil {
		s.release(ctx, draft, err)
		return nil, err
	}
	draft.created = created

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.attachPayment(ctx, tx, draft)
	})
	if err != nil {
		s.voidCharge(ctx, draft, err)
		s.release(ctx, draft, err)
		return nil, mapPersistError(err)
	}

	order, err := s.orders.FindDetail(ctx, draft.id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

type orderDraft struct {
	id        uuid.UUID
	number    string
	userID    uuid.UUID
	actor     auth.Principal
	items     []ItemInput
	products  map[uuid.UUID]models.Product
	breakdown pricing.Breakdown
	address   Address
	notes     *string
	method    enums.PaymentMethod
	created   *mercadopago.CreatedPayment
	now       time.Time
}

// reserveWithRetry commits the PENDING order with its stock and coupon
// reservations, drawing a new order number on collision.
func (s *service) reserveWithRetry(ctx context.Context, d *orderDraft) error {
	for attempt := 1; ; attempt++ {
		number, err := s.newOrderNumber(d.now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		d.number = number
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.reserve(ctx, tx, *d)
		})
		if err == nil {
			return nil
		}
		if attempt >= orderNumberMaxAttempts || !isOrderNumberCollision(err) {
			return mapPersistError(err)
		}
	}
}

func (s *service) reserve(ctx context.Context, tx *gorm.DB, d orderDraft) error {
	repo := s.repo.WithTx(tx)
	for _, item := range d.items {
		ok, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
	}

	if d.breakdown.CouponID != nil {
		ok, err := s.coupons.WithTx(tx).IncrementUsage(ctx, *d.breakdown.CouponID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon usage")
		}
		if !ok {
			return pricing.CouponError(deref(d.breakdown.CouponCode), pricing.ReasonUsageExceeded)
		}
	}

	order := &models.Order{
		ID:                 d.id,
		OrderNumber:        d.number,
		UserID:             d.userID,
		CouponID:           d.breakdown.CouponID,
		Status:             enums.OrderStatusPending,
		Subtotal:           d.breakdown.Subtotal,
		Discount:           d.breakdown.Discount,
		ShippingCost:       d.breakdown.ShippingCost,
		Total:              d.breakdown.Total,
		Notes:              d.notes,
		ShippingName:       d.address.Name,
		ShippingStreet:     d.address.Street,
		ShippingNumber:     d.address.Number,
		ShippingComplement: d.address.Complement,
		ShippingDistrict:   d.address.District,
		ShippingCity:       d.address.City,
		ShippingState:      d.address.State,
		ShippingZipCode:    d.address.ZipCode,
		CreatedAt:          d.now,
		UpdatedAt:          d.now,
	}
	ordersRepo := s.orders.WithTx(tx)
	if err := ordersRepo.Create(ctx, order); err != nil {
		return err
	}

	items := make([]models.OrderItem, 0, len(d.items))
	for _, item := range d.items {
		product := d.products[item.ProductID]
		qty := decimal.NewFromInt(int64(item.Quantity))
		items = append(items, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.ImageURL,
			UnitPrice:    product.Price,
			Quantity:     item.Quantity,
			TotalPrice:   product.Price.Mul(qty).Round(2),
		})
	}
	if err := ordersRepo.CreateItems(ctx, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	return nil
}

// attachPayment records the gateway payment against the reserved order and
// announces the order.
func (s *service) attachPayment(ctx context.Context, tx *gorm.DB, d orderDraft) error {
	if err := s.payments.WithTx(tx).Create(ctx, s.paymentRecord(d)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   d.id,
		Actor:         &outbox.ActorRef{UserID: d.actor.UserID, Role: string(d.actor.Role)},
		Data: payloads.OrderCreatedEvent{
			OrderID:       d.id,
			OrderNumber:   d.number,
			UserID:        d.userID,
			Total:         d.breakdown.Total,
			PaymentMethod: d.method,
			CouponCode:    d.breakdown.CouponCode,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created event")
	}
	return nil
}

// release cancels a reserved order that never got a payment and gives its
// stock and coupon use back. Orders that already moved on are left alone.
func (s *service) release(ctx context.Context, d orderDraft, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.LockByID(ctx, d.id)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		repo := s.repo.WithTx(tx)
		for _, item := range d.items {
			if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock %s: %w", item.ProductID, err)
			}
		}
		if d.breakdown.CouponID != nil {
			if err := s.coupons.WithTx(tx).ReleaseUsage(ctx, *d.breakdown.CouponID); err != nil {
				return fmt.Errorf("release coupon usage: %w", err)
			}
		}
		return ordersRepo.UpdateStatus(ctx, d.id, enums.OrderStatusCancelled)
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": d.id.String(),
			"reason":   cause.Error(),
		})
		s.logg.Error(logCtx, "checkout.release_failed", err)
	}
}

// voidCharge undoes the gateway payment when its order could not be
// completed locally.
func (s *service) voidCharge(ctx context.Context, d orderDraft, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.gateway.VoidPayment(ctx, d.created.ExternalID, d.created.Status)
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    d.id.String(),
			"external_id": d.created.ExternalID,
			"reason":      cause.Error(),
		})
		s.logg.Error(logCtx, "checkout.payment_void_failed", err)
	}
}

func (s *service) paymentRecord(d orderDraft) *models.Payment {
	externalID := d.created.ExternalID
	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       d.id,
		Method:        d.method,
		Status:        enums.PaymentStatusPending,
		Amount:        d.breakdown.Total,
		ExternalID:    &externalID,
		CardLastFour:  d.created.CardLastFour,
		CardBrand:     d.created.CardBrand,
		Installments:  d.created.Installments,
		PixCode:       d.created.PixCode,
		PixQRCode:     d.created.PixQRCode,
		PixExpiresAt:  d.created.PixExpiresAt,
		BoletoURL:     d.created.BoletoURL,
		BoletoBarcode: d.created.BoletoBarcode,
		BoletoDueDate: d.created.BoletoDueDate,
		CreatedAt:     d.now,
		UpdatedAt:     d.now,
	}
	if d.method == enums.PaymentMethodPix && payment.PixExpiresAt == nil {
		expires := d.now.Add(s.pendingTTL)
		payment.PixExpiresAt = &expires
	}
	return payment
}

func (s *service) loadProducts(ctx context.Context, items []ItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var unavailable []string
	for _, id := range ids {
		product, ok := byID[id]
		if !ok || !product.IsActive {
			unavailable = append(unavailable, id.String())
		}
	}
	if len(unavailable) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
			WithDetails(map[string]any{"product_ids": unavailable})
	}
	return byID, nil
}

// Quote prices a cart against current catalog prices without reserving
// anything.
func (s *service) Quote(ctx context.Context, input QuoteInput) (pricing.Breakdown, error) {
	items, details := mergeItems(input.Items)
	if len(details) > 0 {
		return pricing.Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote request").WithDetails(details)
	}
	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return s.quoter.Apply(ctx, pricing.QuoteInput{
		Items:      pricedLines(items, products),
		CouponCode: input.CouponCode,
		PostalCode: input.PostalCode,
	})
}

func pricedLines(items []ItemInput, products map[uuid.UUID]models.Product) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		weight := decimal.Zero
		if product.WeightKg.Valid {
			weight = product.WeightKg.Decimal
		}
		lines = append(lines, pricing.LineItem{
			ProductID: product.ID,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			WeightKg:  weight,
		})
	}
	return lines
}

func stockInputs(items []ItemInput, products map[uuid.UUID]models.Product) []pkgcheckout.StockValidationInput {
	out := make([]pkgcheckout.StockValidationInput, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		out = append(out, pkgcheckout.StockValidationInput{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Quantity:    item.Quantity,
		})
	}
	return out
}

func isOrderNumberCollision(err error) bool {
	for _, name := range orderNumberConstraints {
		if db.IsUniqueViolation(err, name) {
			return true
		}
	}
	return false
}

func mapPersistError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if isOrderNumberCollision(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate order number")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
