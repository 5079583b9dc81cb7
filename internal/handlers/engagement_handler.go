package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type EngagementHandler struct {
	engagementService *services.EngagementService
}

func NewEngagementHandler(engagementService *services.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

func (h *EngagementHandler) Vote(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.engagementService.CastVote(c.UserContext(), principal.FromCtx(c), id, models.VoteType(req.VoteType))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *EngagementHandler) AddComment(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := h.engagementService.AddComment(c.UserContext(), principal.FromCtx(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *EngagementHandler) ListComments(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}

	comments, err := h.engagementService.ListComments(c.UserContext(), principal.FromCtx(c), id, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

func (h *EngagementHandler) RecordView(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}

	resp, err := h.engagementService.RecordView(c.UserContext(), principal.FromCtx(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
