package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS admits the browser origins in CORS_ORIGINS. The moderation panel
// sends X-Admin-Token and reads X-Request-ID back for support tickets.
func CORS(cfg *config.Config) fiber.Handler {
	origins := strings.ReplaceAll(cfg.CORSOrigins, " ", "")
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAuthorization, fiber.HeaderAccept, "X-Admin-Token"}, ","),
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodOptions}, ","),
		ExposeHeaders: fiber.HeaderXRequestID,
		MaxAge:        600,
	})
}
