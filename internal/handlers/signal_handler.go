package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SignalHandler struct {
	signalService     *services.SignalService
	engagementService *services.EngagementService
	queryService      *services.QueryService
}

func NewSignalHandler(signalService *services.SignalService, engagementService *services.EngagementService, queryService *services.QueryService) *SignalHandler {
	return &SignalHandler{
		signalService:     signalService,
		engagementService: engagementService,
		queryService:      queryService,
	}
}

func (h *SignalHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSignalRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	caller := principal.FromCtx(c)
	signal, err := h.signalService.Create(c.UserContext(), caller, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewModerationSignalView(signal))
}

// Get returns one active signal and counts the read as a view.
func (h *SignalHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}

	caller := principal.FromCtx(c)
	signal, err := h.signalService.Get(c.UserContext(), caller, id)
	if err != nil {
		return respondError(c, err)
	}

	if resp, err := h.engagementService.RecordView(c.UserContext(), caller, id); err == nil {
		signal.ViewCount = resp.ViewCount
	} else {
		slog.Warn("view not recorded", "signal_id", id.String(), "error", err)
	}
	return c.JSON(dto.NewSignalView(signal, caller.Approved()))
}

func (h *SignalHandler) Feed(c *fiber.Ctx) error {
	q := services.FeedQuery{
		Color:  c.Query("color"),
		Window: c.Query("window"),
		Sort:   services.FeedSort(c.Query("sort")),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}

	resp, err := h.queryService.Feed(c.UserContext(), principal.FromCtx(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *SignalHandler) Search(c *fiber.Ctx) error {
	resp, err := h.queryService.Search(c.UserContext(), principal.FromCtx(c), c.Query("q"), c.Query("color"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
