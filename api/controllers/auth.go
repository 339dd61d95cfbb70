package controllers

import (
	"net/http"
	"strings"

	"github.com/belacosmetics/storefront-backend/api/responses"
	"github.com/belacosmetics/storefront-backend/api/validators"
	"github.com/belacosmetics/storefront-backend/internal/auth"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

// TokenHeader mirrors the issued access token for clients that read headers.
const TokenHeader = "X-Storefront-Token"

// AuthLogin exchanges admin credentials for a signed access token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var creds auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &creds); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))

		session, err := svc.Login(ctx, creds)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil && session.User != nil {
			ctx = logg.WithActorRole(logg.WithUserID(ctx, session.User.ID.String()), string(session.Role))
			logg.Info(ctx, "admin signed in")
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set(TokenHeader, session.AccessToken)
		responses.WriteSuccess(w, session)
	}
}
