package repositories

import (
	"context"

	"inventory/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	ListByCategory(ctx context.Context, categoryName string) ([]models.CategorizedProduct, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// GetForUpdate reads the product and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uint, update models.ProductUpdate) error
	// AddStock applies delta to the stock column in a single statement.
	AddStock(ctx context.Context, id uint, delta int) error
	TotalValue(ctx context.Context) (decimal.Decimal, error)
	ListLowStock(ctx context.Context, threshold int) ([]models.CategorizedProduct, error)
}
