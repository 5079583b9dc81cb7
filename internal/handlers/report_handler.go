package handlers

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) FileReport(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	report, err := h.reportService.FileReport(c.UserContext(), principal.FromCtx(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) FileClaim(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid signal ID")
	}
	var req dto.CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	claim, err := h.reportService.FileClaim(c.UserContext(), principal.FromCtx(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}

func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	reports, total, err := h.reportService.ListReports(c.UserContext(), principal.FromCtx(c), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": total, "page": page, "limit": limit})
}

func (h *ReportHandler) ResolveReport(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}
	var req dto.ResolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	report, err := h.reportService.ResolveReport(c.UserContext(), principal.FromCtx(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) ListClaims(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	claims, total, err := h.reportService.ListClaims(c.UserContext(), principal.FromCtx(c), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"claims": claims, "total": total, "page": page, "limit": limit})
}

func (h *ReportHandler) ResolveClaim(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid claim ID")
	}
	var req dto.ResolveClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	claim, err := h.reportService.ResolveClaim(c.UserContext(), principal.FromCtx(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}
