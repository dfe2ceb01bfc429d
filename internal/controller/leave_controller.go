package controller

import (
	"virtual-hr-be/internal/pkg/serverutils"
	"virtual-hr-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILeaveController interface {
	RegisterRoutes(r fiber.Router)
	GetHistory(ctx *fiber.Ctx) error
	GetBalance(ctx *fiber.Ctx) error
}

type leaveController struct {
	service service.IHRService
}

func NewLeaveController(service service.IHRService) ILeaveController {
	return &leaveController{service: service}
}

func (c *leaveController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/leave/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("history/:employee_id", c.GetHistory)
	h.Get("balance/:employee_id", c.GetBalance)
}

func (c *leaveController) GetHistory(ctx *fiber.Ctx) error {
	employeeId := ctx.Params("employee_id")
	if !serverutils.CanAccessEmployee(ctx, employeeId) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Access denied"))
	}

	res, err := c.service.LeaveHistory(ctx.UserContext(), employeeId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get leave history", res))
}

func (c *leaveController) GetBalance(ctx *fiber.Ctx) error {
	employeeId := ctx.Params("employee_id")
	if !serverutils.CanAccessEmployee(ctx, employeeId) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Access denied"))
	}

	res, err := c.service.LeaveBalance(ctx.UserContext(), employeeId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get leave balance", res))
}
