// Package payments persists the local record of gateway payments.
package payments

import (
	"context"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads and writes payments.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a payment repository to db.
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

func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// LockByExternalID loads the payment with a row lock held until the
// surrounding transaction ends.
func (r *Repository) LockByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("external_id = ?", externalID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// LockByOrderID loads the order's payment with a row lock. Callers that also
// lock the order take this lock first, matching webhook reconciliation.
func (r *Repository) LockByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatus writes status and paid_at together. A nil paidAt clears it.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, paidAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"paid_at":    paidAt,
			"updated_at": time.Now().UTC(),
		}).Error
}

// ExpiryCutoffs decides when an open payment has run out of time.
type ExpiryCutoffs struct {
	// Now is compared against pix_expires_at.
	Now time.Time
	// BoletoDueBefore is now minus the boleto grace period.
	BoletoDueBefore time.Time
	// CardCreatedBefore is now minus the pending payment TTL.
	CardCreatedBefore time.Time
}

// ListExpiredOpen returns open payments past their deadline whose order is
// still PENDING, oldest first.
func (r *Repository) ListExpiredOpen(ctx context.Context, cutoffs ExpiryCutoffs, limit int) ([]models.Payment, error) {
	var out []models.Payment
	q := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.status = ?", enums.OrderStatusPending).
		Where("payments.status IN ?", []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}).
		Where(
			r.db.Where("payments.method = ? AND payments.pix_expires_at IS NOT NULL AND payments.pix_expires_at < ?", enums.PaymentMethodPix, cutoffs.Now).
				Or("payments.method = ? AND payments.boleto_due_date IS NOT NULL AND payments.boleto_due_date < ?", enums.PaymentMethodBoleto, cutoffs.BoletoDueBefore).
				Or("payments.method = ? AND payments.created_at < ?", enums.PaymentMethodCreditCard, cutoffs.CardCreatedBefore),
		).
		Order("payments.created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
