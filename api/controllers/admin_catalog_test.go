package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belacosmetics/storefront-backend/internal/coupons"
	"github.com/belacosmetics/storefront-backend/internal/dashboard"
	"github.com/belacosmetics/storefront-backend/internal/shipping"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

type stubCouponService struct {
	coupons  []models.Coupon
	input    coupons.Input
	updateID uuid.UUID
	deleted  uuid.UUID
	err      error
}

func (s *stubCouponService) List(context.Context) ([]models.Coupon, error) { return s.coupons, s.err }

func (s *stubCouponService) Get(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Coupon{ID: id, Code: "PROMO10"}, nil
}

func (s *stubCouponService) Create(_ context.Context, input coupons.Input) (*models.Coupon, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Coupon{ID: uuid.New(), Code: input.Code, DiscountType: input.DiscountType, DiscountValue: input.DiscountValue}, nil
}

func (s *stubCouponService) Update(_ context.Context, id uuid.UUID, input coupons.Input) (*models.Coupon, error) {
	s.updateID = id
	s.input = input
	return &models.Coupon{ID: id, Code: input.Code}, s.err
}

func (s *stubCouponService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

const couponBody = `{"code":"promo10","discount_type":"PERCENTAGE","discount_value":"10","max_discount":50,"usage_limit":100,"starts_at":"2025-03-01T00:00:00Z"}`

func TestAdminCreateCoupon(t *testing.T) {
	svc := &stubCouponService{}

	rec := serve(AdminCreateCoupon(svc, nil), newRequest(http.MethodPost, "/api/admin/coupons", couponBody, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "promo10", svc.input.Code)
	assert.Equal(t, enums.DiscountTypePercentage, svc.input.DiscountType)
	assert.True(t, svc.input.DiscountValue.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, svc.input.MaxDiscount)
	assert.True(t, svc.input.MaxDiscount.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, svc.input.UsageLimit)
	assert.Equal(t, 100, *svc.input.UsageLimit)
	require.NotNil(t, svc.input.StartsAt)
	assert.True(t, svc.input.StartsAt.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, svc.input.ExpiresAt)
}

func TestAdminCreateCouponValidation(t *testing.T) {
	svc := &stubCouponService{}

	rec := serve(AdminCreateCoupon(svc, nil), newRequest(http.MethodPost, "/api/admin/coupons", `{"code":"ab","discount_value":1}`, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeError(t, rec).Error.Details
	assert.Contains(t, details, "code")
	assert.Contains(t, details, "discount_type")
	assert.Contains(t, details, "starts_at")
}

func TestAdminCreateCouponDuplicate(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")}

	rec := serve(AdminCreateCoupon(svc, nil), newRequest(http.MethodPost, "/api/admin/coupons", couponBody, nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "coupon code already exists", decodeError(t, rec).Error.Message)
}

func TestAdminCouponReadUpdateDelete(t *testing.T) {
	svc := &stubCouponService{coupons: []models.Coupon{{Code: "A"}, {Code: "B"}}}
	id := uuid.New()
	params := map[string]string{"couponId": id.String()}

	rec := serve(AdminListCoupons(svc, nil), newRequest(http.MethodGet, "/api/admin/coupons", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Coupon
	decodeData(t, rec, &list)
	assert.Len(t, list, 2)

	rec = serve(AdminGetCoupon(svc, nil), newRequest(http.MethodGet, "/", "", params))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(AdminUpdateCoupon(svc, nil), newRequest(http.MethodPut, "/", couponBody, params))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.updateID)

	rec = serve(AdminDeleteCoupon(svc, nil), newRequest(http.MethodDelete, "/", "", params))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, svc.deleted)
}

func TestAdminDeleteCouponInUse(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeConflict, "coupon is referenced by orders")}

	rec := serve(AdminDeleteCoupon(svc, nil), newRequest(http.MethodDelete, "/", "", map[string]string{"couponId": uuid.NewString()}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

type stubZoneService struct {
	input   shipping.Input
	deleted uuid.UUID
	err     error
}

func (s *stubZoneService) List(context.Context) ([]models.ShippingZone, error) {
	return []models.ShippingZone{{Name: "Capital SP"}}, s.err
}

func (s *stubZoneService) Get(_ context.Context, id uuid.UUID) (*models.ShippingZone, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ShippingZone{ID: id}, nil
}

func (s *stubZoneService) Create(_ context.Context, input shipping.Input) (*models.ShippingZone, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.ShippingZone{ID: uuid.New(), Name: input.Name, ZipCodeStart: input.ZipCodeStart, ZipCodeEnd: input.ZipCodeEnd}, nil
}

func (s *stubZoneService) Update(_ context.Context, id uuid.UUID, input shipping.Input) (*models.ShippingZone, error) {
	s.input = input
	return &models.ShippingZone{ID: id, Name: input.Name}, s.err
}

func (s *stubZoneService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func TestAdminCreateShippingZone(t *testing.T) {
	svc := &stubZoneService{}
	body := `{"name":"Capital SP","zip_code_start":"01000-000","zip_code_end":"09999-999","base_price":15,"free_shipping_min":"199.00","estimated_days":3}`

	rec := serve(AdminCreateShippingZone(svc, nil), newRequest(http.MethodPost, "/api/admin/shipping-zones", body, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "01000-000", svc.input.ZipCodeStart)
	assert.True(t, svc.input.BasePrice.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, svc.input.FreeShippingMin)
	assert.True(t, svc.input.FreeShippingMin.Equal(decimal.NewFromInt(199)))
	assert.Nil(t, svc.input.PricePerKg)
	assert.Equal(t, 3, svc.input.EstimatedDays)
}

func TestAdminShippingZoneValidationAndNotFound(t *testing.T) {
	svc := &stubZoneService{}
	rec := serve(AdminCreateShippingZone(svc, nil), newRequest(http.MethodPost, "/api/admin/shipping-zones", `{"name":"X","zip_code_start":"1","zip_code_end":"2","base_price":1,"estimated_days":0}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeError(t, rec).Error.Details
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "estimated_days")

	missing := &stubZoneService{err: pkgerrors.New(pkgerrors.CodeNotFound, "shipping zone not found")}
	rec = serve(AdminGetShippingZone(missing, nil), newRequest(http.MethodGet, "/", "", map[string]string{"zoneId": uuid.NewString()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminShippingZoneListUpdateDelete(t *testing.T) {
	svc := &stubZoneService{}
	id := uuid.New()
	params := map[string]string{"zoneId": id.String()}

	rec := serve(AdminListShippingZones(svc, nil), newRequest(http.MethodGet, "/", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := `{"name":"Interior","zip_code_start":"10000000","zip_code_end":"19999999","base_price":"25.50","estimated_days":5}`
	rec = serve(AdminUpdateShippingZone(svc, nil), newRequest(http.MethodPut, "/", body, params))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Interior", svc.input.Name)

	rec = serve(AdminDeleteShippingZone(svc, nil), newRequest(http.MethodDelete, "/", "", params))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, svc.deleted)
}

type stubDashboardService struct {
	summary *dashboard.Summary
	err     error
}

func (s stubDashboardService) Summary(context.Context, time.Time) (*dashboard.Summary, error) {
	return s.summary, s.err
}

func TestAdminDashboard(t *testing.T) {
	svc := stubDashboardService{summary: &dashboard.Summary{
		ProductCount:     12,
		RevenueThisMonth: decimal.RequireFromString("1234.50"),
		MonthlySales:     []dashboard.MonthlySales{{Month: "2025-03", Revenue: decimal.NewFromInt(10), Orders: 1}},
	}}

	rec := serve(AdminDashboard(svc, nil), newRequest(http.MethodGet, "/api/admin/dashboard", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got dashboard.Summary
	decodeData(t, rec, &got)
	assert.Equal(t, int64(12), got.ProductCount)
	assert.True(t, got.RevenueThisMonth.Equal(decimal.RequireFromString("1234.50")))
	require.Len(t, got.MonthlySales, 1)

	failing := stubDashboardService{err: pkgerrors.New(pkgerrors.CodeDependency, "load dashboard")}
	rec = serve(AdminDashboard(failing, nil), newRequest(http.MethodGet, "/api/admin/dashboard", "", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
