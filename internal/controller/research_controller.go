package controller

import (
	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/pkg/serverutils"
	"research-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	StartSession(ctx *fiber.Ctx) error
	GetSessionStatus(ctx *fiber.Ctx) error
	ProcessQueries(ctx *fiber.Ctx) error
	AddQuery(ctx *fiber.Ctx) error
	GenerateReport(ctx *fiber.Ctx) error
	QueryLiterature(ctx *fiber.Ctx) error
	UpdateNotes(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
}

type researchController struct {
	service     service.IResearchService
	cleanupDays int
}

func NewResearchController(service service.IResearchService, cleanupDays int) IResearchController {
	return &researchController{service: service, cleanupDays: cleanupDays}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/research/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/sessions", c.StartSession)
	h.Get("/sessions/:id", c.GetSessionStatus)
	h.Post("/sessions/:id/queries", c.ProcessQueries)
	h.Post("/sessions/:id/queue", c.AddQuery)
	h.Get("/sessions/:id/report", c.GenerateReport)
	h.Get("/literature", c.QueryLiterature)
	h.Put("/findings/:id/notes", c.UpdateNotes)
	h.Get("/stats", c.GetStats)

	m := r.Group("/maintenance/v1")
	m.Use(serverutils.JwtMiddleware, serverutils.RequireRole(serverutils.RoleReviewer))
	m.Post("/cleanup", c.Cleanup)
}

func userID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(serverutils.LocalUserID).(string)
	return id
}

func (c *researchController) StartSession(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartSession(ctx.UserContext(), userID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session started", res))
}

func (c *researchController) GetSessionStatus(ctx *fiber.Ctx) error {
	res, err := c.service.GetSessionStatus(ctx.UserContext(), userID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session status", res))
}

func (c *researchController) ProcessQueries(ctx *fiber.Ctx) error {
	var req dto.ProcessQueriesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ProcessQueries(ctx.UserContext(), userID(ctx), ctx.Params("id"), req.Queries)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Queries processed", res))
}

func (c *researchController) AddQuery(ctx *fiber.Ctx) error {
	var req dto.AddQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddQuery(ctx.UserContext(), userID(ctx), ctx.Params("id"), req.Query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Query queued", res))
}

func (c *researchController) GenerateReport(ctx *fiber.Ctx) error {
	res, err := c.service.GenerateReport(ctx.UserContext(), userID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session report", res))
}

func (c *researchController) QueryLiterature(ctx *fiber.Ctx) error {
	var q dto.LiteratureQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	res, err := c.service.QueryLiterature(ctx.UserContext(), userID(ctx), q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Stored findings", res))
}

func (c *researchController) UpdateNotes(ctx *fiber.Ctx) error {
	var req dto.UpdateNotesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.UpdateResearcherNotes(ctx.UserContext(), userID(ctx), ctx.Params("id"), req.Notes); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Notes updated", nil))
}

func (c *researchController) GetStats(ctx *fiber.Ctx) error {
	res, err := c.service.ResearcherStats(ctx.UserContext(), userID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Researcher stats", res))
}

// Cleanup drops sessions idle for longer than the requested (or configured) number of days.
func (c *researchController) Cleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}
	days := c.cleanupDays
	if req.Days != nil {
		days = *req.Days
	}

	n, err := c.service.CleanupSessions(ctx.UserContext(), days)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cleanup complete", dto.CleanupResponse{Deleted: n, Days: days}))
}
