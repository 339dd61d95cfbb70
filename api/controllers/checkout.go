package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/belacosmetics/storefront-backend/api/middleware"
	"github.com/belacosmetics/storefront-backend/api/responses"
	"github.com/belacosmetics/storefront-backend/api/validators"
	checkoutsvc "github.com/belacosmetics/storefront-backend/internal/checkout"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

type cartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

type shippingAddressRequest struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Street     string  `json:"street" validate:"required,max=160"`
	Number     string  `json:"number" validate:"required,max=20"`
	Complement *string `json:"complement,omitempty" validate:"omitempty,max=120"`
	District   string  `json:"district" validate:"required,max=120"`
	City       string  `json:"city" validate:"required,max=120"`
	State      string  `json:"state" validate:"required,uf"`
	ZipCode    string  `json:"zip_code" validate:"required,cep"`
}

type checkoutRequest struct {
	Items           []cartItemRequest      `json:"items" validate:"required,min=1,dive"`
	CouponCode      *string                `json:"coupon_code,omitempty"`
	PaymentMethod   enums.PaymentMethod    `json:"payment_method" validate:"required,enum"`
	Installments    *int                   `json:"installments,omitempty" validate:"omitempty,min=1"`
	CardToken       *string                `json:"card_token,omitempty"`
	PayerCPF        *string                `json:"payer_cpf,omitempty"`
	ShippingAddress shippingAddressRequest `json:"shipping_address" validate:"required"`
	Notes           *string                `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (req checkoutRequest) toInput() checkoutsvc.Input {
	addr := req.ShippingAddress
	return checkoutsvc.Input{
		Items:         toItemInputs(req.Items),
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
		Installments:  req.Installments,
		CardToken:     req.CardToken,
		PayerCPF:      req.PayerCPF,
		ShippingAddress: checkoutsvc.Address{
			Name:       addr.Name,
			Street:     addr.Street,
			Number:     addr.Number,
			Complement: addr.Complement,
			District:   addr.District,
			City:       addr.City,
			State:      addr.State,
			ZipCode:    addr.ZipCode,
		},
		Notes: req.Notes,
	}
}

func toItemInputs(items []cartItemRequest) []checkoutsvc.ItemInput {
	out := make([]checkoutsvc.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, checkoutsvc.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

// Checkout places an order for the authenticated customer and returns it
// with the payment instructions.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		principal := middleware.PrincipalFromContext(r.Context())
		if principal.UserID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), principal, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type quoteRequest struct {
	Items      []cartItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode *string           `json:"coupon_code,omitempty"`
	PostalCode string            `json:"postal_code" validate:"required"`
}

// PricingQuote previews subtotal, discount, shipping and total for a cart at
// current catalog prices.
func PricingQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Quote(r.Context(), checkoutsvc.QuoteInput{
			Items:      toItemInputs(payload.Items),
			CouponCode: payload.CouponCode,
			PostalCode: payload.PostalCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}
