package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	signalService *services.SignalService
}

func NewModerationHandler(signalService *services.SignalService) *ModerationHandler {
	return &ModerationHandler{signalService: signalService}
}

// ListSignals is the review queue; status defaults to under_review.
func (h *ModerationHandler) ListSignals(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	signals, total, err := h.signalService.ListByStatus(c.UserContext(), principal.FromCtx(c), models.SignalStatus(c.Query("status")), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"signals": signals, "total": total, "page": page, "limit": limit})
}

// GetSignal reads one signal in any status, author included.
func (h *ModerationHandler) GetSignal(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	view, err := h.signalService.GetForModeration(c.UserContext(), principal.FromCtx(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *ModerationHandler) Transition(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	signal, err := h.signalService.Transition(c.UserContext(), principal.FromCtx(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewModerationSignalView(signal))
}

func (h *ModerationHandler) ListAudit(c *fiber.Ctx) error {
	var target *uuid.UUID
	if raw := c.Query("target_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid target ID")
		}
		target = &id
	}

	logs, err := h.signalService.ListAudit(c.UserContext(), principal.FromCtx(c), target, c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": logs})
}
