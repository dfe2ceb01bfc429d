package controller

import (
	"virtual-hr-be/internal/dto"
	"virtual-hr-be/internal/pkg/serverutils"
	"virtual-hr-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	ClearChatHistory(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.SendChat)
	h.Get("history/:employee_id", c.GetChatHistory)
	h.Delete("history/:employee_id", c.ClearChatHistory)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	employeeId, employeeName := serverutils.Identity(ctx)
	// HR may chat on behalf of an employee, e.g. from a support console
	if req.EmployeeId != "" && req.EmployeeId != employeeId {
		if !serverutils.IsHR(ctx) {
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Cannot chat as another employee"))
		}
		employeeId, employeeName = req.EmployeeId, req.EmployeeName
	}
	if req.EmployeeName != "" && employeeName == "" {
		employeeName = req.EmployeeName
	}

	res, err := c.service.SendChat(ctx.UserContext(), employeeId, employeeName, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) GetChatHistory(ctx *fiber.Ctx) error {
	employeeId := ctx.Params("employee_id")
	if !serverutils.CanAccessEmployee(ctx, employeeId) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Access denied"))
	}

	res, err := c.service.GetChatHistory(ctx.UserContext(), employeeId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) ClearChatHistory(ctx *fiber.Ctx) error {
	employeeId := ctx.Params("employee_id")
	if !serverutils.CanAccessEmployee(ctx, employeeId) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Access denied"))
	}

	if err := c.service.ClearChatHistory(ctx.UserContext(), employeeId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear chat history", nil))
}
