package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/screening"
	"github.com/gofiber/fiber/v2"
)

// ScreenHandler lets clients check text before submitting it. The result is
// advisory; create-signal and add-comment screen again.
type ScreenHandler struct {
	screener *screening.Screener
	metrics  *metrics.Registry
}

func NewScreenHandler(screener *screening.Screener, reg *metrics.Registry) *ScreenHandler {
	return &ScreenHandler{screener: screener, metrics: reg}
}

func (h *ScreenHandler) Screen(c *fiber.Ctx) error {
	var req dto.ScreenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result := h.screener.Screen(req.Text)
	h.metrics.ObserveScreen("advisory", result.Passed)
	return c.JSON(result)
}
