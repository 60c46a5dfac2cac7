package services

import (
	"context"
	"fmt"
	"math"

	"inventory/internal/models"
	"inventory/internal/repositories"

	"go.uber.org/zap"
)

// ProductService handles the product catalog.
type ProductService struct {
	store  repositories.Store
	logger *zap.Logger
	after  afterCommit
}

// NewProductService creates a new ProductService.
func NewProductService(store repositories.Store, logger *zap.Logger, opts ...Option) *ProductService {
	return &ProductService{
		store:  store,
		logger: logger,
		after:  afterCommit{options: buildOptions(opts), logger: logger},
	}
}

// ListProducts returns one page of the catalog. page below 1 means the first
// page and a non-positive limit means DefaultPageSize.
func (s *ProductService) ListProducts(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	products, err := s.store.Products().List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	total, err := s.store.Products().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return &models.ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// ListProductsByCategory returns the products of the named category. An
// unknown category yields an empty list.
func (s *ProductService) ListProductsByCategory(ctx context.Context, categoryName string) ([]models.CategorizedProduct, error) {
	products, err := s.store.Products().ListByCategory(ctx, categoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by category: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", notFoundAs("product", id, err))
	}
	return product, nil
}

// ListCategories returns the category reference data.
func (s *ProductService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CreateProduct validates the input and inserts one product.
func (s *ProductService) CreateProduct(ctx context.Context, in models.CreateProductInput) (*models.Product, error) {
	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("failed to add product: %w", err)
	}

	product := models.Product{
		Name:        *in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       *in.Stock,
		CategoryID:  *in.CategoryID,
	}

	err := s.store.Atomic(ctx, func(repos repositories.Repositories) error {
		if _, err := repos.Categories().GetByID(ctx, product.CategoryID); err != nil {
			return notFoundAs("category", product.CategoryID, err)
		}
		return repos.Products().Create(ctx, &product)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product: %w", err)
	}

	s.logger.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	s.after.invalidateValuation(ctx)
	s.after.publish(ctx, EventProductCreated, product)
	s.after.checkLowStock(ctx, product, math.MaxInt, product.Stock)
	return &product, nil
}

// UpdateProduct applies a partial update. Stock cannot be changed here; it
// only moves through AdjustStock and RecordTransaction.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, update models.ProductUpdate) (*models.Product, error) {
	if err := validateProductUpdate(update); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if update.Price.Set {
		update.Price.Value = update.Price.Value.Round(2)
	}

	var updated *models.Product
	err := s.store.Atomic(ctx, func(repos repositories.Repositories) error {
		if _, err := repos.Products().GetForUpdate(ctx, id); err != nil {
			return notFoundAs("product", id, err)
		}
		if update.CategoryID.Set {
			if _, err := repos.Categories().GetByID(ctx, update.CategoryID.Value); err != nil {
				return notFoundAs("category", update.CategoryID.Value, err)
			}
		}
		if err := repos.Products().Update(ctx, id, update); err != nil {
			return err
		}
		product, err := repos.Products().GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.Uint("product_id", id))
	if update.Price.Set {
		s.after.invalidateValuation(ctx)
	}
	s.after.publish(ctx, EventProductUpdated, updated)
	return updated, nil
}

func validateProductUpdate(update models.ProductUpdate) error {
	if update.IsEmpty() {
		return NewValidationError("", "no fields to update")
	}

	verr := &ValidationError{}
	if update.Name.Set {
		switch {
		case update.Name.Null || update.Name.Value == "":
			verr.add("name", "name must not be empty")
		case len(update.Name.Value) > 255:
			verr.add("name", "name must be at most 255 characters long")
		}
	}
	if update.Price.Set {
		switch {
		case update.Price.Null:
			verr.add("price", "price cannot be null")
		case update.Price.Value.IsNegative():
			verr.add("price", "price cannot be negative")
		}
	}
	if update.CategoryID.Set && (update.CategoryID.Null || update.CategoryID.Value == 0) {
		verr.add("categoryId", "categoryId must be greater than 0")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
