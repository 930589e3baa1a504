package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/abhirang/internal/config"
	"github.com/example/abhirang/internal/utils"
)

const userContextKey = "currentUserID"

// AuthMiddleware requires a valid bearer token and stores the authenticated
// user ID in the request context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or malformed bearer token")
		}

		userID, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID set by AuthMiddleware.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}
