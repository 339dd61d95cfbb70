package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/belacosmetics/storefront-backend/pkg/security"
)

var provisionValidator = validator.New()

// AdminInput describes a back-office account to create or reset.
type AdminInput struct {
	Name     string         `validate:"required,max=120"`
	Email    string         `validate:"required,email"`
	Password string         `validate:"required,min=12"`
	Role     enums.UserRole `validate:"required,oneof=ADMIN SUPER_ADMIN"`
}

// ProvisionAdmin creates the admin account or, when the email already
// exists, resets its password and role. created reports which happened.
func ProvisionAdmin(ctx context.Context, repo *Repository, input AdminInput, pw config.PasswordConfig) (user *models.User, created bool, err error) {
	input.Email = NormalizeEmail(input.Email)
	if err := provisionValidator.Struct(input); err != nil {
		return nil, false, fmt.Errorf("invalid admin input: %w", err)
	}

	hash, err := security.HashPassword(input.Password, pw)
	if err != nil {
		return nil, false, err
	}

	existing, err := repo.FindByEmail(ctx, input.Email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = repo.Create(ctx, CreateUserDTO{
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: &hash,
			Role:         input.Role,
		})
		if err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		return user, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}

	if err := repo.UpdateCredentials(ctx, existing.ID, hash, input.Role); err != nil {
		return nil, false, fmt.Errorf("reset admin: %w", err)
	}
	existing.PasswordHash = &hash
	existing.Role = input.Role
	return existing, false, nil
}
