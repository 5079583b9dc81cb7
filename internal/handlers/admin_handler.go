package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	statsService    *services.StatsService
	settingsService *services.SettingsService
}

func NewAdminHandler(statsService *services.StatsService, settingsService *services.SettingsService) *AdminHandler {
	return &AdminHandler{statsService: statsService, settingsService: settingsService}
}

func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.statsService.Overview(c.UserContext(), principal.FromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// SignupSettings is public so the signup form knows whether to ask for a
// code.
func (h *AdminHandler) SignupSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.Signup(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.RequireInviteCode == nil {
		return badRequest(c, "require_invite_code is required")
	}

	settings, err := h.settingsService.SetRequireInviteCode(c.UserContext(), principal.FromCtx(c), *req.RequireInviteCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}
