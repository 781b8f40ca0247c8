package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
)

// TokenRevoker records logged-out token ids.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthHandler struct {
	Users    *services.UserService
	Sessions TokenRevoker
	Audit    *services.AuditService
}

func NewAuthHandler(users *services.UserService, sessions TokenRevoker, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions, Audit: audit}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Users.Register(c.UserContext(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err, "user", "failed creating user")
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username and password are required")
	}

	user, err := h.Users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Warn("login_failed", map[string]interface{}{
				"username": req.Username,
				"ip":       c.IP(),
			})
			return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return respondServiceError(c, err, "user", "failed logging in")
	}

	logger.Info("user_login", map[string]interface{}{
		"user_id": user.ID.String(),
		"ip":      c.IP(),
	})

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

// Logout revokes the presented token. Without a session store the token
// simply runs out its lifetime.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	claims := middleware.GetCurrentClaims(c)
	if user == nil || claims == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if h.Sessions == nil {
		logger.WarnWithUser(user.ID.String(), "logout_without_session_store", nil)
		return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.Sessions.Revoke(c.UserContext(), claims.ID, expiresAt); err != nil {
		logger.ErrorWithUser(user.ID.String(), "logout_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed revoking token")
	}

	logger.InfoWithUser(user.ID.String(), "user_logout", nil)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}
