package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps a service error to its HTTP status. Forbidden and
// storage failures never leak detail.
func respondError(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = &apperr.Error{Kind: apperr.KindStorage, Err: err}
	}

	switch ae.Kind {
	case apperr.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: ae.Message,
		})
	case apperr.KindPolicy:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: true, Message: ae.Message, Reasons: ae.Reasons,
		})
	case apperr.KindConflict:
		msg := ae.Message
		if msg == "" {
			msg = "action not applicable"
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: msg,
		})
	case apperr.KindForbidden:
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "forbidden",
		})
	case apperr.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: ae.Message,
		})
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "trace_id", traceID(c), "error", err)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "internal server error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return badRequest(c, "Invalid request body")
}

func idParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func traceID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
