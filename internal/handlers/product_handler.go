package handlers

import (
	"inventory/internal/models"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	products  *services.ProductService
	inventory *services.InventoryService
	logger    *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *services.ProductService, inventory *services.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers the product routes. Mutations go through protect.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Get("/:id/history", h.HandleProductHistory)
	productRoutes.Post("/", protect, h.HandleCreateProduct)
	productRoutes.Put("/:id", protect, h.HandleUpdateProduct)

	router.Get("/categories", h.HandleListCategories)
}

// HandleListProducts serves either one page of the catalog or, with
// ?category=, every product of that category.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	if category := c.Query("category"); category != "" {
		products, err := h.products.ListProductsByCategory(c.UserContext(), category)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(fiber.Map{
			"data":     products,
			"category": category,
			"total":    len(products),
		})
	}

	page, err := h.products.ListProducts(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", services.DefaultPageSize))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	product, err := h.products.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"data": product})
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in models.CreateProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	product, err := h.products.CreateProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    product,
		"message": "Product added successfully",
	})
}

type stockChange struct {
	ID    *uint `json:"id"`
	Stock *int  `json:"stock"`
}

type stockAdjustRequest struct {
	Product         *stockChange            `json:"product"`
	TransactionType *models.TransactionType `json:"transactionType"`
}

// HandleUpdateProduct applies a partial update. A body carrying
// transactionType is a direct stock adjustment instead:
// {"product":{"stock":n},"transactionType":"purchase"|"sale"}.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var adjust stockAdjustRequest
	if err := c.BodyParser(&adjust); err != nil {
		return badRequestBody(c, h.logger, err)
	}
	if adjust.TransactionType != nil {
		return h.adjustStock(c, id, adjust)
	}

	var update models.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequestBody(c, h.logger, err)
	}
	product, err := h.products.UpdateProduct(c.UserContext(), id, update)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data":    product,
		"message": "Product updated successfully",
	})
}

func (h *ProductHandler) adjustStock(c *fiber.Ctx, id uint, req stockAdjustRequest) error {
	if req.Product == nil || req.Product.Stock == nil {
		return respondError(c, h.logger, services.NewValidationError("stock", "stock is required"))
	}
	if req.Product.ID != nil && *req.Product.ID != id {
		return respondError(c, h.logger, services.NewValidationError("id", "product id does not match the path"))
	}

	adjustment, err := h.inventory.AdjustStock(c.UserContext(), id, *req.Product.Stock, *req.TransactionType)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data":    adjustment,
		"message": "Stock updated successfully",
	})
}

// HandleProductHistory returns the ledger of one product, newest first.
func (h *ProductHandler) HandleProductHistory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	entries, err := h.inventory.GetProductHistory(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data":      entries,
		"productId": id,
		"total":     len(entries),
	})
}

// HandleListCategories lists the category reference data.
func (h *ProductHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.products.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"data": categories})
}
