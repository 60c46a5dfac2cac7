package services

import (
	"context"
	"fmt"

	"inventory/internal/models"
	"inventory/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const inventoryValueKey = "inventory-value"

// ReportService computes the derived inventory reports.
type ReportService struct {
	store   repositories.Store
	logger  *zap.Logger
	opts    options
	sfGroup singleflight.Group // Prevents cache stampede
}

// NewReportService creates a new ReportService.
func NewReportService(store repositories.Store, logger *zap.Logger, opts ...Option) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

// DefaultThreshold is the low-stock threshold used when the caller gives none.
func (s *ReportService) DefaultThreshold() int {
	return s.opts.lowStockThreshold
}

// GetInventoryValue returns the sum of price × stock over all products,
// zero for an empty catalog.
func (s *ReportService) GetInventoryValue(ctx context.Context) (*models.InventoryValue, error) {
	if s.opts.cache != nil {
		cached, err := s.opts.cache.GetInventoryValue(ctx)
		if err != nil {
			// Continue to database on cache error
			s.logger.Warn("Inventory value cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(inventoryValueKey, func() (interface{}, error) {
		// Shared by every waiting caller; no single caller cancels it.
		ctx := context.WithoutCancel(ctx)

		generation, cacheable := s.valuationGeneration(ctx)
		total, err := s.store.Products().TotalValue(ctx)
		if err != nil {
			return nil, err
		}
		value := models.InventoryValue{TotalValue: total, Currency: s.opts.currency}
		if cacheable {
			if err := s.opts.cache.SetInventoryValue(ctx, value, generation); err != nil {
				s.logger.Warn("Failed to cache inventory value", zap.Error(err))
			}
		}
		return value, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to calculate inventory value: %w", err)
	}

	value := val.(models.InventoryValue)
	return &value, nil
}

// valuationGeneration reads the cache generation before the valuation query.
// A commit that invalidates after this point makes the result uncacheable.
func (s *ReportService) valuationGeneration(ctx context.Context) (int64, bool) {
	if s.opts.cache == nil {
		return 0, false
	}
	generation, err := s.opts.cache.InventoryValueGeneration(ctx)
	if err != nil {
		s.logger.Warn("Inventory value cache generation read failed", zap.Error(err))
		return 0, false
	}
	return generation, true
}

// GetLowStockProducts returns products whose stock is at or below threshold,
// lowest stock first, each with its category name.
func (s *ReportService) GetLowStockProducts(ctx context.Context, threshold int) ([]models.CategorizedProduct, error) {
	products, err := s.store.Products().ListLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}
