package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/belacosmetics/storefront-backend/api/responses"
	"github.com/belacosmetics/storefront-backend/api/validators"
	"github.com/belacosmetics/storefront-backend/internal/shipping"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

type shippingZoneRequest struct {
	Name            string           `json:"name" validate:"required,min=2,max=120"`
	ZipCodeStart    string           `json:"zip_code_start" validate:"required,max=9"`
	ZipCodeEnd      string           `json:"zip_code_end" validate:"required,max=9"`
	BasePrice       decimal.Decimal  `json:"base_price"`
	PricePerKg      *decimal.Decimal `json:"price_per_kg,omitempty"`
	FreeShippingMin *decimal.Decimal `json:"free_shipping_min,omitempty"`
	EstimatedDays   int              `json:"estimated_days" validate:"required,min=1"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func (req shippingZoneRequest) toInput() shipping.Input {
	return shipping.Input{
		Name:            req.Name,
		ZipCodeStart:    req.ZipCodeStart,
		ZipCodeEnd:      req.ZipCodeEnd,
		BasePrice:       req.BasePrice,
		PricePerKg:      req.PricePerKg,
		FreeShippingMin: req.FreeShippingMin,
		EstimatedDays:   req.EstimatedDays,
		IsActive:        req.IsActive,
	}
}

func AdminListShippingZones(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		zones, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zones)
	}
}

func AdminGetShippingZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		zone, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zone)
	}
}

func AdminCreateShippingZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		var body shippingZoneRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		zone, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, zone)
	}
}

func AdminUpdateShippingZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body shippingZoneRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		zone, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zone)
	}
}

func AdminDeleteShippingZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
