package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/auth"
	"github.com/deskline/support-tickets/internal/config"
	"github.com/deskline/support-tickets/internal/domain"
	apperrors "github.com/deskline/support-tickets/pkg/util"
)

const invalidCredentials = "Invalid username or password"

// AuthService authenticates the single operator account.
type AuthService struct {
	username     string
	passwordHash string
	tokenMgr     *auth.TokenManager
	logger       *zap.Logger
}

// NewAuthService hashes the configured password and prepares token signing.
// A missing JWT secret is replaced by a random one, which invalidates tokens
// on restart.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := auth.GenerateSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn("AUTH_JWT_SECRET not set, using a random key; tokens will not survive restarts")
	}

	s := &AuthService{
		username: cfg.Username,
		tokenMgr: auth.NewTokenManager(secret, cfg.AccessTokenTTLMinutes),
		logger:   logger,
	}
	if cfg.Username == "" || cfg.Password == "" {
		logger.Warn("AUTH_USERNAME or AUTH_PASSWORD not set, login is disabled")
		return s, nil
	}

	hash, err := auth.HashPassword(cfg.Password, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash operator password: %w", err)
	}
	s.passwordHash = hash
	return s, nil
}

// Authenticate checks credentials and issues an access token.
func (s *AuthService) Authenticate(_ context.Context, username, password string) (domain.Token, error) {
	if s.passwordHash == "" {
		return domain.Token{}, apperrors.NewUnauthorized(invalidCredentials)
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.username)) == 1
	// bcrypt runs regardless of the username result.
	passErr := auth.ComparePassword(s.passwordHash, password)
	if !userOK || passErr != nil {
		s.logger.Warn("login failed", zap.String("username", username))
		return domain.Token{}, apperrors.NewUnauthorized(invalidCredentials)
	}

	value, expiresAt, err := s.tokenMgr.GenerateToken(s.username, domain.RoleAdmin)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("login succeeded", zap.String("username", s.username))
	return domain.Token{
		Value:     value,
		Username:  s.username,
		Role:      domain.RoleAdmin,
		ExpiresAt: expiresAt,
	}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
