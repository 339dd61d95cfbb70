// Package auth signs back office users in.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/belacosmetics/storefront-backend/internal/users"
	pkgAuth "github.com/belacosmetics/storefront-backend/pkg/auth"
	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/security"
)

// Service is what the login controller depends on.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type ServiceParams struct {
	UserRepo  userRepository
	JWTConfig config.JWTConfig
}

type service struct {
	users  userRepository
	jwtCfg config.JWTConfig
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, errors.New("user repository is required")
	}
	return &service{
		users:  params.UserRepo,
		jwtCfg: params.JWTConfig,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// invalidCredentials is the single answer for unknown emails, wrong
// passwords and accounts without a password.
func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

// Login checks the credentials and issues an access token. Customers are
// refused even with a correct password.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.verify(ctx, users.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	issuedAt := s.now()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, issuedAt, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   issuedAt.Add(s.jwtCfg.TTL()),
		Role:        user.Role,
		User:        users.FromModel(user),
	}, nil
}

func (s *service) verify(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, invalidCredentials()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	case user.PasswordHash == nil || *user.PasswordHash == "":
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}
	return user, nil
}
