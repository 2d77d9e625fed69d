package auth

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPasswordCfg = config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	testJWTCfg = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 30,
	}
)

func fixedNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func TestAdminRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)

	registerSvc, err := NewAdminRegisterService(AdminRegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordCfg,
		JWTConfig:      testJWTCfg,
		Now:            fixedNow,
	})
	require.NoError(t, err)

	session, err := registerSvc.Register(ctx, AdminRegisterRequest{
		FirstNames: " Ada ",
		LastName:   "Lovelace",
		Email:      " Ada@Example.com ",
		Password:   "correct-horse-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, "Ada", session.User.FirstName)
	require.NotNil(t, session.User.SystemRole)
	assert.Equal(t, string(enums.SystemRoleAdmin), *session.User.SystemRole)
	assert.Equal(t, 30*60, session.ExpiresIn)

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, session.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, session.User.ID, claims.UserID)

	_, err = registerSvc.Register(ctx, AdminRegisterRequest{
		FirstNames: "Other",
		LastName:   "Person",
		Email:      "ADA@example.com",
		Password:   "correct-horse-42",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	loginSvc, err := NewService(ServiceParams{
		UserRepo:  users.NewRepository(client.DB()),
		JWTConfig: testJWTCfg,
		Now:       fixedNow,
	})
	require.NoError(t, err)

	loggedIn, err := loginSvc.AdminLogin(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct-horse-42"})
	require.NoError(t, err)
	assert.NotEmpty(t, loggedIn.AccessToken)
	require.NotNil(t, loggedIn.User.LastLoginAt)

	_, err = loginSvc.AdminLogin(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong-password-1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = loginSvc.AdminLogin(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse-42"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdminRegisterRejectsWeakPassword(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewAdminRegisterService(AdminRegisterServiceParams{DB: client, PasswordConfig: testPasswordCfg, JWTConfig: testJWTCfg})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), AdminRegisterRequest{
		FirstNames: "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Password:   "short",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := users.NewRepository(client.DB())

	hash, err := security.HashPassword("shopper-pass-1", testPasswordCfg)
	require.NoError(t, err)
	_, err = repo.Create(ctx, users.CreateUserDTO{
		Email:        "shopper@example.com",
		PasswordHash: hash,
		FirstName:    "Shop",
		LastName:     "Per",
	})
	require.NoError(t, err)

	inactive := false
	adminRole := string(enums.SystemRoleAdmin)
	_, err = repo.Create(ctx, users.CreateUserDTO{
		Email:        "retired@example.com",
		PasswordHash: hash,
		FirstName:    "Re",
		LastName:     "Tired",
		SystemRole:   &adminRole,
		IsActive:     &inactive,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTCfg})
	require.NoError(t, err)

	for _, email := range []string{"shopper@example.com", "retired@example.com"} {
		_, err = svc.AdminLogin(ctx, LoginRequest{Email: email, Password: "shopper-pass-1"})
		require.Error(t, err, email)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized), email)
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	_, err = NewAdminRegisterService(AdminRegisterServiceParams{})
	require.Error(t, err)
}
