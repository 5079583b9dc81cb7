package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// JWTProtected verifies identity provider tokens. With JWT_JWKS_URL set the
// keys come from the provider's key set; otherwise JWT_SECRET is the HMAC key.
// Requests already authenticated by OpsToken skip verification.
func JWTProtected(cfg *config.Config) fiber.Handler {
	jwtCfg := jwtware.Config{
		Filter: isOperator,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	}
	if cfg.JWTJWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.JWTJWKSURL}
	} else {
		jwtCfg.SigningKey = jwtware.SigningKey{Key: []byte(cfg.JWTSecret)}
	}
	return jwtware.New(jwtCfg)
}

// ProfileLookup resolves a token subject to its member profile.
type ProfileLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (models.Profile, error)
}

// LoadCaller turns the verified token subject into a principal.Caller. A
// subject without a profile becomes an unregistered caller, which is enough
// to redeem an invite and nothing else.
func LoadCaller(profiles ProfileLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isOperator(c) {
			return c.Next()
		}

		sub, err := principal.SubjectFromToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: invalid token subject",
			})
		}

		p, err := profiles.Lookup(c.UserContext(), sub)
		switch {
		case errors.Is(err, services.ErrNoProfile):
			principal.SetCaller(c, principal.Caller{ID: sub})
		case err != nil:
			slog.Error("caller lookup failed", "user_id", sub.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "internal server error",
			})
		default:
			principal.SetCaller(c, principal.FromProfile(p))
		}
		return c.Next()
	}
}
