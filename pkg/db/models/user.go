package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/belacosmetics/storefront-backend/pkg/enums"
)

// User is a storefront account; admins sign in to the back office.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash *string        `gorm:"column:password_hash" json:"-"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null;default:'CUSTOMER'" json:"role"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
