package controllers

import (
	"net/http"
	"time"

	"github.com/belacosmetics/storefront-backend/api/responses"
	"github.com/belacosmetics/storefront-backend/internal/dashboard"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

// AdminDashboard returns the back office summary as of now.
func AdminDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		summary, err := svc.Summary(r.Context(), time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
