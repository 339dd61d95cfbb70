package auth

import (
	"time"

	"github.com/belacosmetics/storefront-backend/internal/users"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful back office login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Role        enums.UserRole `json:"role"`
	User        *users.UserDTO `json:"user"`
}
