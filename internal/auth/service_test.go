package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/belacosmetics/storefront-backend/pkg/auth"
	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/belacosmetics/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

func TestServiceLoginAdmin(t *testing.T) {
	password := "admin-secret"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: strPtr(mustHashPassword(t, password)),
		Role:         enums.UserRoleAdmin,
	}
	svc := buildTestService(t, stubUserRepo{user: user})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Admin@Example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}
	if !resp.ExpiresAt.Equal(fixed.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user dto in response, got %+v", resp.User)
	}
}

func TestServiceLoginTokenCarriesRole(t *testing.T) {
	password := "super-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "root@example.com",
		PasswordHash: strPtr(mustHashPassword(t, password)),
		Role:         enums.UserRoleSuperAdmin,
	}
	svc := buildTestService(t, stubUserRepo{user: user})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleSuperAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti claim")
	}
}

func TestServiceLoginRejectsCustomer(t *testing.T) {
	password := "customer-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "ana@example.com",
		PasswordHash: strPtr(mustHashPassword(t, password)),
		Role:         enums.UserRoleCustomer,
	}
	svc := buildTestService(t, stubUserRepo{user: user})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestServiceLoginInvalidCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: strPtr(mustHashPassword(t, "right")),
		Role:         enums.UserRoleAdmin,
	}
	noPassword := &models.User{ID: uuid.New(), Email: "sso@example.com", Role: enums.UserRoleAdmin}

	cases := []struct {
		name string
		repo stubUserRepo
		req  LoginRequest
	}{
		{"wrong password", stubUserRepo{user: user}, LoginRequest{Email: user.Email, Password: "wrong"}},
		{"unknown email", stubUserRepo{err: gorm.ErrRecordNotFound}, LoginRequest{Email: "ghost@example.com", Password: "x"}},
		{"blank email", stubUserRepo{user: user}, LoginRequest{Email: "  ", Password: "right"}},
		{"no password set", stubUserRepo{user: noPassword}, LoginRequest{Email: noPassword.Email, Password: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := buildTestService(t, tc.repo)
			_, err := svc.Login(context.Background(), tc.req)
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestServiceLoginRepositoryFailure(t *testing.T) {
	svc := buildTestService(t, stubUserRepo{err: errors.New("connection reset")})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(ServiceParams{JWTConfig: testJWT}); err == nil {
		t.Fatal("expected error without user repository")
	}
}

func buildTestService(t *testing.T, repo stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func strPtr(value string) *string {
	return &value
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}
