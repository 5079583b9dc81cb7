package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (h *InviteHandler) Issue(c *fiber.Ctx) error {
	resp, err := h.inviteService.Issue(c.UserContext(), principal.FromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if resp.Reused {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(resp)
}

// Validate is public; it only says whether the code can be redeemed.
func (h *InviteHandler) Validate(c *fiber.Ctx) error {
	ok, err := h.inviteService.Validate(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ValidateInviteResponse{Valid: ok})
}

// Redeem admits the token subject. The caller has no profile yet.
func (h *InviteHandler) Redeem(c *fiber.Ctx) error {
	var req dto.RedeemInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	caller := principal.FromCtx(c)
	profile, err := h.inviteService.Redeem(c.UserContext(), req.Code, caller.ID, principal.EmailFromToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}
