package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagamachi/meiten/database/dbtest"
	"github.com/wagamachi/meiten/database/repo/accounts"
	"github.com/wagamachi/meiten/internal/apperr"
	cryptopackage "github.com/wagamachi/meiten/utils/crypto"
)

func newTestLoginService(t *testing.T) *LoginService {
	t.Helper()
	hasher := cryptopackage.NewPasswordHasher(cryptopackage.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	return NewLoginService(accounts.NewRepository(dbtest.Open(t)), newTestJWTService(t), hasher)
}

func TestLoginService_RegisterAndLogin(t *testing.T) {
	s := newTestLoginService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, RegisterRequest{Email: " Taro@Example.com ", Password: "password123", DisplayName: "太郎"})
	require.NoError(t, err)
	assert.Equal(t, "taro@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)

	result, err := s.Login(ctx, "TARO@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := s.jwtService.ParseToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
}

func TestLoginService_LoginFailures(t *testing.T) {
	s := newTestLoginService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterRequest{Email: "taro@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = s.Login(ctx, "taro@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = s.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginService_RegisterValidation(t *testing.T) {
	s := newTestLoginService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "password123"}, "email"},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.req)
			ve, ok := apperr.IsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	_, err := s.Register(ctx, RegisterRequest{Email: "dup@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = s.Register(ctx, RegisterRequest{Email: "DUP@example.com", Password: "password123"})
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "email", ve.Field)
}
