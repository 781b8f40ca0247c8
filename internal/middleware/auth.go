package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prayershare/backend/internal/models"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	currentUserKey   = "currentUser"
	currentClaimsKey = "currentClaims"
)

// RevocationChecker reports whether a token id has been revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	DB      *gorm.DB
	Revoked RevocationChecker
}

// NewAuthMiddleware builds the JWT guard. revoked may be nil, in which case
// tokens stay valid until they expire.
func NewAuthMiddleware(db *gorm.DB, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{DB: db, Revoked: revoked}
}

func CORS(allowedOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
			"ip":          c.IP(),
			"path":        c.Path(),
			"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	if a.Revoked != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		revoked, err := a.Revoked.IsRevoked(ctx, claims.ID)
		cancel()
		if err != nil {
			logger.Error("jwt_revocation_check_failed", err, map[string]interface{}{
				"path": c.Path(),
			})
			return utils.Error(c, fiber.StatusServiceUnavailable, "session store unavailable")
		}
		if revoked {
			logger.Warn("jwt_revoked", map[string]interface{}{
				"ip":      c.IP(),
				"path":    c.Path(),
				"user_id": claims.UserID.String(),
			})
			return utils.Error(c, fiber.StatusUnauthorized, "token has been revoked")
		}
	}

	var user models.User
	if err := a.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		logger.Warn("jwt_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	c.Locals(currentUserKey, &user)
	c.Locals(currentClaimsKey, claims)
	c.Locals(logger.UserIDLocal, user.ID.String())
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(currentUserKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentClaims returns the validated token claims, used by logout to
// find the token id and expiry.
func GetCurrentClaims(c *fiber.Ctx) *utils.Claims {
	claims, ok := c.Locals(currentClaimsKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
