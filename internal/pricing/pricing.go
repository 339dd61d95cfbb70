// Package pricing computes subtotals, shipping, coupon discounts and totals.
// Every function here is pure; callers load coupons and zones beforehand.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

const (
	moneyPlaces   = 2
	postalCodeLen = 8
)

// Coupon rejection reasons reported in error details.
const (
	ReasonInactive      = "inactive"
	ReasonExpired       = "expired"
	ReasonUsageExceeded = "usage-exceeded"
	ReasonBelowMinimum  = "below-minimum"
	ReasonNotFound      = "not-found"
)

var hundred = decimal.NewFromInt(100)

// LineItem is a priced cart line.
type LineItem struct {
	ProductID uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
	WeightKg  decimal.Decimal
}

// ShippingQuote is the resolved zone and cost for a destination.
type ShippingQuote struct {
	ZoneID        uuid.UUID
	ZoneName      string
	Cost          decimal.Decimal
	EstimatedDays int
	FreeShipping  bool
}

// Discount is the outcome of applying a coupon.
type Discount struct {
	Amount       decimal.Decimal
	FreeShipping bool
	CouponID     uuid.UUID
	CouponCode   string
}

// Breakdown is the full price quote for a cart.
type Breakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	Total         decimal.Decimal `json:"total"`
	EstimatedDays int             `json:"estimated_days"`
	FreeShipping  bool            `json:"free_shipping"`
	CouponCode    *string         `json:"coupon_code,omitempty"`
	CouponID      *uuid.UUID      `json:"-"`
	ZoneID        uuid.UUID       `json:"-"`
}

// ComputeSubtotal sums unit price times quantity across the items.
func ComputeSubtotal(items []LineItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required").
			WithDetails(map[string]string{"items": "must not be empty"})
	}

	details := map[string]string{}
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			details[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than zero"
		}
		if !item.UnitPrice.IsPositive() {
			details[fmt.Sprintf("items[%d].unit_price", i)] = "must be greater than zero"
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if len(details) > 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid items").WithDetails(details)
	}
	return subtotal.Round(moneyPlaces), nil
}

// TotalWeight returns the summed line weight in kilograms.
func TotalWeight(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.WeightKg.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// NormalizePostalCode strips non-digits and left-pads to eight digits.
func NormalizePostalCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 0 || len(digits) > postalCodeLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid postal code").
			WithDetails(map[string]string{"postalCode": "must contain 1 to 8 digits"})
	}
	return strings.Repeat("0", postalCodeLen-len(digits)) + digits, nil
}

// ResolveShipping picks the first active zone covering the postal code.
func ResolveShipping(zones []models.ShippingZone, postalCode string, subtotal, weightKg decimal.Decimal) (ShippingQuote, error) {
	cep, err := NormalizePostalCode(postalCode)
	if err != nil {
		return ShippingQuote{}, err
	}

	for _, zone := range zones {
		if !zone.IsActive {
			continue
		}
		start := padPostalCode(zone.ZipCodeStart)
		end := padPostalCode(zone.ZipCodeEnd)
		if cep < start || cep > end {
			continue
		}

		quote := ShippingQuote{
			ZoneID:        zone.ID,
			ZoneName:      zone.Name,
			EstimatedDays: zone.EstimatedDays,
		}
		if zone.FreeShippingMin.Valid && subtotal.GreaterThanOrEqual(zone.FreeShippingMin.Decimal) {
			quote.Cost = decimal.Zero
			quote.FreeShipping = true
			return quote, nil
		}
		quote.Cost = zone.BasePrice.Add(zone.PricePerKg.Mul(weightKg)).Round(moneyPlaces)
		return quote, nil
	}

	return ShippingQuote{}, pkgerrors.New(pkgerrors.CodeShippingUnavailable, "no shipping zone covers postal code").
		WithDetails(map[string]string{"postalCode": cep})
}

// ApplyCoupon validates the coupon against subtotal and now and returns the discount.
func ApplyCoupon(coupon models.Coupon, subtotal decimal.Decimal, now time.Time) (Discount, error) {
	if reason := couponRejection(coupon, subtotal, now); reason != "" {
		return Discount{}, CouponError(coupon.Code, reason)
	}

	discount := Discount{CouponID: coupon.ID, CouponCode: coupon.Code, Amount: decimal.Zero}
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		amount := subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscount.Valid && amount.GreaterThan(coupon.MaxDiscount.Decimal) {
			amount = coupon.MaxDiscount.Decimal
		}
		discount.Amount = amount.Round(moneyPlaces)
	case enums.DiscountTypeFixed:
		discount.Amount = decimal.Min(coupon.DiscountValue, subtotal).Round(moneyPlaces)
	case enums.DiscountTypeFreeShipping:
		discount.FreeShipping = true
	default:
		return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported discount type %q", coupon.DiscountType))
	}
	return discount, nil
}

func couponRejection(coupon models.Coupon, subtotal decimal.Decimal, now time.Time) string {
	switch {
	case !coupon.IsActive:
		return ReasonInactive
	case now.Before(coupon.StartsAt), coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt):
		return ReasonExpired
	case coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit:
		return ReasonUsageExceeded
	case coupon.MinPurchase.Valid && subtotal.LessThan(coupon.MinPurchase.Decimal):
		return ReasonBelowMinimum
	}
	return ""
}

// CouponError builds the typed rejection for a coupon code.
func CouponError(code, reason string) error {
	return pkgerrors.New(pkgerrors.CodeCouponInvalid, fmt.Sprintf("coupon %s", reason)).
		WithDetails(map[string]string{"code": code, "reason": reason})
}

// ComputeTotal returns max(subtotal - discount, 0) + shipping.
func ComputeTotal(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	net := subtotal.Sub(discount)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return net.Add(shipping).Round(moneyPlaces)
}

// Quote prices a cart end to end. coupon may be nil.
func Quote(items []LineItem, coupon *models.Coupon, zones []models.ShippingZone, postalCode string, now time.Time) (Breakdown, error) {
	subtotal, err := ComputeSubtotal(items)
	if err != nil {
		return Breakdown{}, err
	}

	discount := Discount{Amount: decimal.Zero}
	if coupon != nil {
		discount, err = ApplyCoupon(*coupon, subtotal, now)
		if err != nil {
			return Breakdown{}, err
		}
	}

	shipping, err := ResolveShipping(zones, postalCode, subtotal, TotalWeight(items))
	if err != nil {
		return Breakdown{}, err
	}
	shippingCost := shipping.Cost
	if discount.FreeShipping {
		shippingCost = decimal.Zero
	}

	out := Breakdown{
		Subtotal:      subtotal,
		Discount:      discount.Amount,
		ShippingCost:  shippingCost,
		Total:         ComputeTotal(subtotal, discount.Amount, shippingCost),
		EstimatedDays: shipping.EstimatedDays,
		FreeShipping:  shipping.FreeShipping || discount.FreeShipping,
		ZoneID:        shipping.ZoneID,
	}
	if coupon != nil {
		code := coupon.Code
		id := coupon.ID
		out.CouponCode = &code
		out.CouponID = &id
	}
	return out, nil
}

func padPostalCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= postalCodeLen {
		return code
	}
	return strings.Repeat("0", postalCodeLen-len(code)) + code
}
