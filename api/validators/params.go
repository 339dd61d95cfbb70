package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
)

// ParseUUIDParam reads the chi route parameter name as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter "+name).
			WithDetails(map[string]string{name: "is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed path parameter "+name).
			WithDetails(map[string]string{name: "must be a UUID"})
	}
	return id, nil
}
