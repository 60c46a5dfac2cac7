package handlers

import (
	"errors"
	"strconv"

	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Anything not
// recognised is logged and reported as a bare 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var (
		verr  *services.ValidationError
		nferr *services.NotFoundError
		iserr *services.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Error()}
		if len(verr.Fields) > 0 && verr.Fields[0].Field != "" {
			body["fields"] = verr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &nferr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nferr.Error()})
	case errors.As(err, &iserr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     iserr.Error(),
			"productId": iserr.ProductID,
			"requested": iserr.Requested,
			"available": iserr.Available,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	logger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequestBody(c *fiber.Ctx, logger *zap.Logger, err error) error {
	logger.Debug("Error parsing request body", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

// idParam reads a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, services.NewValidationError(name, name+" must be a positive integer")
	}
	return uint(id), nil
}
