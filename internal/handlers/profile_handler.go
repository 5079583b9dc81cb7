package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	profile, err := h.profileService.Me(c.UserContext(), principal.FromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) ListMembers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	members, total, err := h.profileService.ListMembers(c.UserContext(), principal.FromCtx(c), c.Query("status"), c.Query("role"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"members": members, "total": total, "page": page, "limit": limit})
}

func (h *ProfileHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid member ID")
	}
	var req dto.SetAccountStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	profile, err := h.profileService.SetAccountStatus(c.UserContext(), principal.FromCtx(c), id, models.AccountStatus(req.Status), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) SetRole(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid member ID")
	}
	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	profile, err := h.profileService.SetRole(c.UserContext(), principal.FromCtx(c), id, models.Role(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
