package handlers

import (
	"strconv"

	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReportHandler serves the derived inventory reports.
type ReportHandler struct {
	reports *services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// RegisterRoutes registers the report routes.
func (h *ReportHandler) RegisterRoutes(router fiber.Router) {
	reportRoutes := router.Group("/reports")
	reportRoutes.Get("/inventory", h.HandleInventoryValue)
	reportRoutes.Get("/low-stock", h.HandleLowStock)
}

// HandleInventoryValue returns the total value of the stock on hand.
func (h *ReportHandler) HandleInventoryValue(c *fiber.Ctx) error {
	value, err := h.reports.GetInventoryValue(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data":    value,
		"message": "Inventory value calculated successfully",
	})
}

// HandleLowStock lists products at or below ?threshold=, or the configured
// default threshold.
func (h *ReportHandler) HandleLowStock(c *fiber.Ctx) error {
	threshold := h.reports.DefaultThreshold()
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return respondError(c, h.logger, services.NewValidationError("threshold", "threshold must be a non-negative integer"))
		}
		threshold = n
	}

	products, err := h.reports.GetLowStockProducts(c.UserContext(), threshold)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data":      products,
		"threshold": threshold,
		"total":     len(products),
	})
}
