package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskline/support-tickets/internal/config"
	"github.com/deskline/support-tickets/internal/domain"
	apperrors "github.com/deskline/support-tickets/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Username:              "admin",
		Password:              "correct horse",
		JWTSecret:             "0123456789abcdef0123456789abcdef",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}
}

func TestAuthenticateIssuesAdminToken(t *testing.T) {
	svc, err := NewAuthService(testAuthConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	token, err := svc.Authenticate(context.Background(), "admin", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin", token.Username)
	assert.Equal(t, domain.RoleAdmin, token.Role)

	claims, err := svc.TokenManager().ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, err := NewAuthService(testAuthConfig(), nil)
	require.NoError(t, err)

	for _, creds := range [][2]string{{"admin", "wrong"}, {"root", "correct horse"}, {"", ""}} {
		_, err := svc.Authenticate(context.Background(), creds[0], creds[1])
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	}
}

func TestAuthenticateDisabledWithoutCredentials(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Password = ""
	svc, err := NewAuthService(cfg, nil)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "admin", "")
	require.Error(t, err)
}

func TestAuthServiceGeneratesSecretWhenMissing(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	svc, err := NewAuthService(cfg, nil)
	require.NoError(t, err)

	token, err := svc.Authenticate(context.Background(), "admin", "correct horse")
	require.NoError(t, err)
	_, err = svc.TokenManager().ParseToken(token.Value)
	require.NoError(t, err)
}
