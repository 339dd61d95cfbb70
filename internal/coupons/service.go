package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const minCodeLength = 3

var hundred = decimal.NewFromInt(100)

type couponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service manages coupons for the back office.
type Service interface {
	List(ctx context.Context) ([]models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, input Input) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input carries the editable coupon fields. Update replaces all of them.
type Input struct {
	Code          string
	Description   *string
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	MinPurchase   *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	IsActive      *bool
	StartsAt      *time.Time
	ExpiresAt     *time.Time
}

type service struct {
	repo couponRepository
}

// NewService builds the coupon service.
func NewService(repo couponRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Coupon, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{ID: uuid.New()}
	applyInput(coupon, input)

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, mapWriteError(err, "create coupon")
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Coupon, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	coupon, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(coupon, input)

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, mapWriteError(err, "update coupon")
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	refs, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon orders")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon is referenced by orders").
			WithDetails(map[string]any{"orders": refs})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func mapWriteError(err error, step string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

func applyInput(coupon *models.Coupon, input Input) {
	coupon.Code = input.Code
	coupon.Description = input.Description
	coupon.DiscountType = input.DiscountType
	coupon.DiscountValue = input.DiscountValue
	coupon.MinPurchase = nullDecimal(input.MinPurchase)
	coupon.MaxDiscount = nullDecimal(input.MaxDiscount)
	coupon.UsageLimit = input.UsageLimit
	coupon.IsActive = input.IsActive == nil || *input.IsActive
	coupon.StartsAt = input.StartsAt.UTC()
	if input.ExpiresAt != nil {
		expires := input.ExpiresAt.UTC()
		coupon.ExpiresAt = &expires
	} else {
		coupon.ExpiresAt = nil
	}
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

// validateInput normalizes the code in place and checks every field.
func validateInput(input *Input) error {
	details := map[string]string{}

	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if len(input.Code) < minCodeLength {
		details["code"] = fmt.Sprintf("must have at least %d characters", minCodeLength)
	}
	if !input.DiscountType.IsValid() {
		details["discount_type"] = "must be PERCENTAGE, FIXED or FREE_SHIPPING"
	}
	if input.DiscountValue.IsNegative() {
		details["discount_value"] = "must not be negative"
	} else if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(hundred) {
		details["discount_value"] = "percentage must not exceed 100"
	}
	if input.MinPurchase != nil && input.MinPurchase.IsNegative() {
		details["min_purchase"] = "must not be negative"
	}
	if input.MaxDiscount != nil && input.MaxDiscount.IsNegative() {
		details["max_discount"] = "must not be negative"
	}
	if input.UsageLimit != nil && *input.UsageLimit < 0 {
		details["usage_limit"] = "must not be negative"
	}
	if input.StartsAt == nil || input.StartsAt.IsZero() {
		details["starts_at"] = "is required"
	} else if input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		details["expires_at"] = "must not be before starts_at"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon").WithDetails(details)
	}
	return nil
}
