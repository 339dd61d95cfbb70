package controllers

import (
	"math"
	"net/http"
	"strings"

	internalorders "github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/pagination"

	"github.com/belacosmetics/storefront-backend/api/middleware"
	"github.com/belacosmetics/storefront-backend/api/responses"
	"github.com/belacosmetics/storefront-backend/api/validators"
)


// AdminListOrders returns a page of orders filtered by search text and status.
func AdminListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, math.MaxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit = pagination.NormalizeLimit(limit)

		params := internalorders.ListParams{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 100),
			Page:   page,
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(strings.ToUpper(raw))
			params.Status = &status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminGetOrder returns an order with its items, payment, coupon and customer.
func AdminGetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status         enums.OrderStatus `json:"status" validate:"required"`
	TrackingNumber *string           `json:"tracking_number,omitempty" validate:"omitempty,max=120"`
	TrackingURL    *string           `json:"tracking_url,omitempty" validate:"omitempty,max=500"`
	Notes          *string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AdminUpdateOrderStatus moves an order along the status lifecycle and edits
// its tracking data.
func AdminUpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		order, err := svc.UpdateStatus(ctx, middleware.PrincipalFromContext(ctx), orderID, internalorders.UpdateStatusInput{
			Status:         enums.OrderStatus(strings.ToUpper(strings.TrimSpace(string(body.Status)))),
			TrackingNumber: body.TrackingNumber,
			TrackingURL:    body.TrackingURL,
			Notes:          body.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
