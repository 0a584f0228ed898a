package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func TestAuthService_SeedAndLogin(t *testing.T) {
	svc := &AuthService{Repo: newTestRepo(t)}
	ctx := context.Background()

	created, err := svc.SeedUser(ctx, "barista@shop.test", "espresso")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedUser(ctx, "barista@shop.test", "other")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := svc.Login(ctx, "barista@shop.test", "espresso")
	require.NoError(t, err)
	assert.Equal(t, "barista@shop.test", u.Email)
	assert.NotEqual(t, "espresso", u.PasswordHash)
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc := &AuthService{Repo: newTestRepo(t)}
	ctx := context.Background()
	_, err := svc.SeedUser(ctx, "barista@shop.test", "espresso")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "wrong password", email: "barista@shop.test", password: "latte", want: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@shop.test", password: "espresso", want: ErrInvalidCredentials},
		{name: "empty email", email: "", password: "espresso", want: ErrValidation},
		{name: "empty password", email: "barista@shop.test", password: "", want: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.email, tt.password)
			assert.Nil(t, u)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_SeedUser_Validation(t *testing.T) {
	svc := &AuthService{Repo: newTestRepo(t)}
	_, err := svc.SeedUser(context.Background(), " ", "pw")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login_UnusableDigest(t *testing.T) {
	svc := &AuthService{Repo: newTestRepo(t)}
	ctx := context.Background()
	_, err := svc.Repo.CreateUserIfNotExists(ctx, &models.User{Email: "legacy@shop.test", PasswordHash: "plaintext"})
	require.NoError(t, err)

	u, err := svc.Login(ctx, "legacy@shop.test", "plaintext")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
