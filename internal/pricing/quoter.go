package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type zoneLister interface {
	ListActive(ctx context.Context) ([]models.ShippingZone, error)
}

// QuoteInput is a cart to price.
type QuoteInput struct {
	Items      []LineItem
	CouponCode *string
	PostalCode string
}

// Quoter loads the coupon and shipping zones a quote needs.
type Quoter struct {
	coupons couponFinder
	zones   zoneLister
	now     func() time.Time
}

// NewQuoter builds a Quoter over the coupon and zone repositories.
func NewQuoter(coupons couponFinder, zones zoneLister) (*Quoter, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if zones == nil {
		return nil, fmt.Errorf("shipping zone repository required")
	}
	return &Quoter{
		coupons: coupons,
		zones:   zones,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Apply prices the cart. A blank coupon code is treated as no coupon.
func (q *Quoter) Apply(ctx context.Context, input QuoteInput) (Breakdown, error) {
	coupon, err := q.LoadCoupon(ctx, input.CouponCode)
	if err != nil {
		return Breakdown{}, err
	}
	zones, err := q.zones.ListActive(ctx)
	if err != nil {
		return Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping zones")
	}
	return Quote(input.Items, coupon, zones, input.PostalCode, q.now())
}

// LoadCoupon resolves a code to its coupon. Unknown codes are reported as
// an invalid coupon rather than a missing resource.
func (q *Quoter) LoadCoupon(ctx context.Context, code *string) (*models.Coupon, error) {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil, nil
	}
	coupon, err := q.coupons.FindByCode(ctx, *code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CouponError(strings.ToUpper(strings.TrimSpace(*code)), ReasonNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}
