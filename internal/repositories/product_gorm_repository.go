package repositories

import (
	"context"
	"errors"
	"fmt"

	"inventory/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const categorizedProductColumns = "products.*, categories.name AS category_name"

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns one page of products in insertion order.
func (r *GORMProductRepository) List(ctx context.Context, offset, limit int) ([]models.Product, error) {
	products := make([]models.Product, 0, limit)
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Count returns the number of products in the catalog.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// ListByCategory returns every product whose category carries the given name.
func (r *GORMProductRepository) ListByCategory(ctx context.Context, categoryName string) ([]models.CategorizedProduct, error) {
	var products []models.CategorizedProduct
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(categorizedProductColumns).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.name = ?", categoryName).
		Order("products.id ASC").
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products by category %q: %w", categoryName, err)
	}
	if products == nil {
		products = []models.CategorizedProduct{}
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves a product and takes a row lock on it. Drivers
// without row locks (SQLite) drop the FOR UPDATE clause.
func (r *GORMProductRepository) GetForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GORMProductRepository) get(db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes only the fields present in update. Like AddStock it expects
// the caller to have locked the row.
func (r *GORMProductRepository) Update(ctx context.Context, id uint, update models.ProductUpdate) error {
	changes := make(map[string]interface{}, 4)
	if update.Name.Set {
		changes["name"] = update.Name.Value
	}
	if update.Description.Set {
		changes["description"] = update.Description.Ptr()
	}
	if update.Price.Set {
		changes["price"] = update.Price.Value
	}
	if update.CategoryID.Set {
		changes["category_id"] = update.CategoryID.Value
	}
	if len(changes) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(changes).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// AddStock adds delta (which may be negative) to the product's stock.
// MySQL reports changed rather than matched rows, so existence is the
// caller's job: lock the row with GetForUpdate first.
func (r *GORMProductRepository) AddStock(ctx context.Context, id uint, delta int) error {
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// TotalValue returns the sum of price × stock over the whole catalog.
func (r *GORMProductRepository) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&models.Product{}).Select("SUM(price * stock)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to calculate inventory value: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ListLowStock returns products with stock at or below threshold, lowest first.
func (r *GORMProductRepository) ListLowStock(ctx context.Context, threshold int) ([]models.CategorizedProduct, error) {
	var products []models.CategorizedProduct
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(categorizedProductColumns).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.stock <= ?", threshold).
		Order("products.stock ASC, products.id ASC").
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	if products == nil {
		products = []models.CategorizedProduct{}
	}
	return products, nil
}
