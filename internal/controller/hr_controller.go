package controller

import (
	"virtual-hr-be/internal/dto"
	"virtual-hr-be/internal/pkg/serverutils"
	"virtual-hr-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHRController interface {
	RegisterRoutes(r fiber.Router)
	UpdateLeaveStatus(ctx *fiber.Ctx) error
	GetFeedbackTrends(ctx *fiber.Ctx) error
	IngestDocument(ctx *fiber.Ctx) error
}

type hrController struct {
	service service.IHRService
}

func NewHRController(service service.IHRService) IHRController {
	return &hrController{service: service}
}

func (c *hrController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/hr/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.HROnly)
	h.Patch("leave/status", c.UpdateLeaveStatus)
	h.Get("feedback/trends", c.GetFeedbackTrends)
	h.Post("documents", c.IngestDocument)
}

func (c *hrController) UpdateLeaveStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateLeaveStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateLeaveStatus(ctx.UserContext(), serverutils.IsHR(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update leave status", res))
}

func (c *hrController) GetFeedbackTrends(ctx *fiber.Ctx) error {
	res, err := c.service.FeedbackTrends(ctx.UserContext(), serverutils.IsHR(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get feedback trends", res))
}

func (c *hrController) IngestDocument(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.QueueDocument(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}
