package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by JwtMiddleware.
const (
	LocalEmployeeID   = "employee_id"
	LocalEmployeeName = "employee_name"
	LocalIsHR         = "is_hr"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}
	tokenStr := authHeader[7:]

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Authentication is not configured"))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	employeeID, _ := claims["employee_id"].(string)
	if employeeID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}
	employeeName, _ := claims["employee_name"].(string)
	isHR, _ := claims["is_hr"].(bool)

	ctx.Locals(LocalEmployeeID, employeeID)
	ctx.Locals(LocalEmployeeName, employeeName)
	ctx.Locals(LocalIsHR, isHR)
	return ctx.Next()
}

// HROnly rejects callers whose token does not carry is_hr. Use after JwtMiddleware.
func HROnly(ctx *fiber.Ctx) error {
	if !IsHR(ctx) {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Only HR can perform this action"))
	}
	return ctx.Next()
}

// Identity returns the caller set by JwtMiddleware.
func Identity(ctx *fiber.Ctx) (employeeID, employeeName string) {
	employeeID, _ = ctx.Locals(LocalEmployeeID).(string)
	employeeName, _ = ctx.Locals(LocalEmployeeName).(string)
	return employeeID, employeeName
}

func IsHR(ctx *fiber.Ctx) bool {
	isHR, _ := ctx.Locals(LocalIsHR).(bool)
	return isHR
}

// CanAccessEmployee allows employees their own records and HR everyone's.
func CanAccessEmployee(ctx *fiber.Ctx, employeeID string) bool {
	self, _ := Identity(ctx)
	return IsHR(ctx) || self == employeeID
}
