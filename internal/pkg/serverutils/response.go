package serverutils

import (
	"errors"

	"virtual-hr-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *BaseResponse[T] {
	return &BaseResponse[T]{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) *BaseResponse[any] {
	return &BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into JSON responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := statusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

func statusFor(err error) (int, string) {
	var validationErr *apperror.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Error()
	case errors.Is(err, apperror.ErrForbidden):
		return fiber.StatusForbidden, "Only HR can perform this action"
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, apperror.ErrStateConflict):
		return fiber.StatusConflict, "Please try again"
	case apperror.IsUnavailable(err):
		return fiber.StatusServiceUnavailable, "A dependent service is unavailable, please try again"
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
