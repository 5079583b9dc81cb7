package middleware

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const operatorKey = "operator"

// OpsToken admits requests carrying an X-Admin-Token that matches the bcrypt
// hash in ADMIN_TOKEN_HASH. Such requests act as principal.Operator and skip
// token verification further down the chain. Without a configured hash the
// header is ignored.
func OpsToken(cfg *config.Config) fiber.Handler {
	hash := []byte(cfg.AdminTokenHash)

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Admin-Token")
		if len(hash) == 0 || token == "" {
			return c.Next()
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: invalid admin token",
			})
		}
		c.Locals(operatorKey, true)
		principal.SetCaller(c, principal.Operator())
		return c.Next()
	}
}

func isOperator(c *fiber.Ctx) bool {
	ok, _ := c.Locals(operatorKey).(bool)
	return ok
}

// RequireModerator admits approved moderators and admins.
func RequireModerator() fiber.Handler {
	return requireCaller(principal.Caller.Moderator)
}

// RequireAdmin admits approved admins.
func RequireAdmin() fiber.Handler {
	return requireCaller(principal.Caller.Admin)
}

func requireCaller(allowed func(principal.Caller) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !allowed(principal.FromCtx(c)) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "forbidden",
			})
		}
		return c.Next()
	}
}
