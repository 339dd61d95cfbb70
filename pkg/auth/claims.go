package auth

import (
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller passed into mutating operations.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// PrincipalFromClaims converts parsed claims into a Principal.
func PrincipalFromClaims(claims *AccessTokenClaims) Principal {
	if claims == nil {
		return Principal{}
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}
}

// CanManageOrders reports whether the principal may read and mutate any order.
func (p Principal) CanManageOrders() bool {
	return p.UserID != uuid.Nil && p.Role.IsAdmin()
}
