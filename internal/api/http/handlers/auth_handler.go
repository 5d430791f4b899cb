package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/support-tickets/internal/api/dto"
	"github.com/deskline/support-tickets/internal/service"
	apperrors "github.com/deskline/support-tickets/pkg/util"
)

// AuthHandler exposes the operator login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		return apperrors.NewValidationError("Username and password are required", nil)
	}

	token, err := h.auth.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     token.Value,
		Username:  token.Username,
		ExpiresAt: token.ExpiresAt,
	})
}
