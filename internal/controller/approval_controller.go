package controller

import (
	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/serverutils"
	"research-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IApprovalController interface {
	RegisterRoutes(r fiber.Router)
	ListPending(ctx *fiber.Ctx) error
	GetApproval(ctx *fiber.Ctx) error
	Review(ctx *fiber.Ctx) error
	Escalate(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
	SendDigest(ctx *fiber.Ctx) error
	GetAuditLogs(ctx *fiber.Ctx) error
}

type approvalController struct {
	service service.IApprovalService
	audit   logger.AuditReader
}

func NewApprovalController(service service.IApprovalService, audit logger.AuditReader) IApprovalController {
	return &approvalController{service: service, audit: audit}
}

// RegisterRoutes mounts the reviewer API. Every route needs the reviewer role.
func (c *approvalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/approvals/v1")
	h.Use(serverutils.JwtMiddleware, serverutils.RequireRole(serverutils.RoleReviewer))
	h.Get("", c.ListPending)
	h.Get("/summary", c.Summary)
	h.Get("/audit-logs", c.GetAuditLogs)
	h.Post("/digest", c.SendDigest)
	h.Get("/:id", c.GetApproval)
	h.Post("/:id/review", c.Review)
	h.Post("/:id/escalate", c.Escalate)
}

func (c *approvalController) ListPending(ctx *fiber.Ctx) error {
	var q dto.PendingApprovalsQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.ListPending(ctx.UserContext(), q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Pending approvals", res))
}

func (c *approvalController) GetApproval(ctx *fiber.Ctx) error {
	res, err := c.service.GetApproval(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Approval", res))
}

func (c *approvalController) Review(ctx *fiber.Ctx) error {
	var req dto.ReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ProcessReview(ctx.UserContext(), ctx.Params("id"), userID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Review recorded", res))
}

func (c *approvalController) Escalate(ctx *fiber.Ctx) error {
	var req dto.EscalateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Escalate(ctx.UserContext(), ctx.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Approval escalated", res))
}

func (c *approvalController) Summary(ctx *fiber.Ctx) error {
	res, err := c.service.Summary(ctx.UserContext(), ctx.Query("session_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Approval summary", res))
}

func (c *approvalController) SendDigest(ctx *fiber.Ctx) error {
	n, err := c.service.SendPendingDigest(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Digest sent", fiber.Map{"pending": n}))
}

func (c *approvalController) GetAuditLogs(ctx *fiber.Ctx) error {
	q := dto.AuditLogQuery{Limit: 50}
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	logs, err := c.audit.GetLogs(q.Level, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Review audit log", logs))
}
