package handlers

import (
	"inventory/internal/middleware"
	"inventory/internal/models"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TransactionHandler handles HTTP requests for the ledger.
type TransactionHandler struct {
	inventory *services.InventoryService
	logger    *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(inventory *services.InventoryService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers the transaction routes.
func (h *TransactionHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	router.Post("/transactions", protect, h.HandleCreateTransaction)
}

type createTransactionRequest struct {
	Transaction *models.RecordTransactionInput `json:"transaction"`
}

// HandleCreateTransaction records a purchase or a sale. userId defaults to
// the authenticated user.
func (h *TransactionHandler) HandleCreateTransaction(c *fiber.Ctx) error {
	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, h.logger, err)
	}
	if req.Transaction == nil {
		return respondError(c, h.logger, services.NewValidationError("transaction", "transaction is required"))
	}

	in := *req.Transaction
	if in.UserID == nil {
		if userID, ok := middleware.UserID(c); ok {
			in.UserID = &userID
		}
	}

	result, err := h.inventory.RecordTransaction(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    result,
		"message": "Transaction created successfully",
	})
}
