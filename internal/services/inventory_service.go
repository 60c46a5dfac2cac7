package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory/internal/metrics"
	"inventory/internal/models"
	"inventory/internal/repositories"

	"go.uber.org/zap"
)

// InventoryService owns every stock mutation: ledger transactions and
// direct stock adjustments.
type InventoryService struct {
	store  repositories.Store
	logger *zap.Logger
	after  afterCommit
	now    func() time.Time
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(store repositories.Store, logger *zap.Logger, opts ...Option) *InventoryService {
	return &InventoryService{
		store:  store,
		logger: logger,
		after:  afterCommit{options: buildOptions(opts), logger: logger},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordTransaction appends a purchase or a sale to the ledger and moves the
// product's stock by the same quantity. Both writes commit together or not
// at all. A sale larger than the stock on hand fails with
// InsufficientStockError and writes nothing.
func (s *InventoryService) RecordTransaction(ctx context.Context, in models.RecordTransactionInput) (*models.TransactionResult, error) {
	if err := validateStruct(in); err != nil {
		metrics.RecordTransaction(typeLabel(in.Type), metrics.OutcomeInvalid, 0)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	productID, quantity, txnType := *in.ProductID, *in.Quantity, *in.Type
	delta := quantity
	if txnType == models.TransactionSale {
		delta = -quantity
	}

	var (
		result  models.TransactionResult
		product *models.Product
	)
	err := s.store.Atomic(ctx, func(repos repositories.Repositories) error {
		var err error
		product, err = repos.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return notFoundAs("product", productID, err)
		}

		if txnType == models.TransactionSale && product.Stock < quantity {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.Stock,
			}
		}

		txn := models.Transaction{
			ProductID:       product.ID,
			Quantity:        quantity,
			Type:            txnType,
			UserID:          *in.UserID,
			TransactionDate: s.now(),
		}
		if err := repos.Transactions().Create(ctx, &txn); err != nil {
			return err
		}
		if err := repos.Products().AddStock(ctx, product.ID, delta); err != nil {
			return err
		}

		result = models.TransactionResult{
			Transaction:   txn,
			ProductName:   product.Name,
			PreviousStock: product.Stock,
			NewStock:      product.Stock + delta,
		}
		return nil
	})
	if err != nil {
		metrics.RecordTransaction(string(txnType), outcomeOf(err), 0)
		if errors.Is(err, ErrInsufficientStock) {
			s.logger.Info("Sale rejected", zap.Uint("product_id", productID), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	metrics.RecordTransaction(string(txnType), metrics.OutcomeCommitted, quantity)
	s.logger.Info("Transaction recorded",
		zap.Uint("transaction_id", result.ID),
		zap.Uint("product_id", productID),
		zap.String("type", string(txnType)),
		zap.Int("quantity", quantity),
		zap.Int("previous_stock", result.PreviousStock),
		zap.Int("new_stock", result.NewStock),
	)
	s.after.invalidateValuation(ctx)
	s.after.publish(ctx, EventTransactionRecorded, result)
	s.after.checkLowStock(ctx, *product, result.PreviousStock, result.NewStock)
	return &result, nil
}

// AdjustStock moves stock directly without writing a ledger entry.
//
// A purchase adds quantity unconditionally. A sale only rejects a negative
// quantity; it is not compared with the stock on hand, so this path can take
// stock below zero. RecordTransaction is the checked path.
func (s *InventoryService) AdjustStock(ctx context.Context, productID uint, quantity int, txnType models.TransactionType) (*models.StockAdjustment, error) {
	verr := &ValidationError{}
	if productID == 0 {
		verr.add("productId", "productId must be greater than 0")
	}
	if !txnType.Valid() {
		verr.add("transactionType", "transactionType must be one of: purchase, sale")
	}
	if txnType == models.TransactionSale && quantity < 0 {
		verr.add("stock", "stock cannot be negative")
	}
	if len(verr.Fields) > 0 {
		metrics.RecordStockAdjustment(string(txnType), metrics.OutcomeInvalid)
		return nil, fmt.Errorf("failed to update stock: %w", verr)
	}

	delta := quantity
	if txnType == models.TransactionSale {
		delta = -quantity
	}

	var (
		adjustment models.StockAdjustment
		product    *models.Product
	)
	err := s.store.Atomic(ctx, func(repos repositories.Repositories) error {
		var err error
		product, err = repos.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return notFoundAs("product", productID, err)
		}
		if err := repos.Products().AddStock(ctx, productID, delta); err != nil {
			return err
		}
		adjustment = models.StockAdjustment{
			ProductID:       productID,
			TransactionType: txnType,
			Quantity:        quantity,
			PreviousStock:   product.Stock,
			NewStock:        product.Stock + delta,
		}
		return nil
	})
	if err != nil {
		metrics.RecordStockAdjustment(string(txnType), outcomeOf(err))
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	metrics.RecordStockAdjustment(string(txnType), metrics.OutcomeCommitted)
	if adjustment.NewStock < 0 {
		s.logger.Warn("Stock adjustment left product with negative stock",
			zap.Uint("product_id", productID),
			zap.Int("new_stock", adjustment.NewStock),
		)
	} else {
		s.logger.Info("Stock adjusted",
			zap.Uint("product_id", productID),
			zap.String("type", string(txnType)),
			zap.Int("previous_stock", adjustment.PreviousStock),
			zap.Int("new_stock", adjustment.NewStock),
		)
	}
	s.after.invalidateValuation(ctx)
	s.after.publish(ctx, EventStockAdjusted, adjustment)
	s.after.checkLowStock(ctx, *product, adjustment.PreviousStock, adjustment.NewStock)
	return &adjustment, nil
}

// GetProductHistory returns the ledger of one product, most recent first.
func (s *InventoryService) GetProductHistory(ctx context.Context, productID uint) ([]models.HistoryEntry, error) {
	entries, err := s.store.Transactions().ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product history: %w", err)
	}
	return entries, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	}
	return metrics.OutcomeError
}

func typeLabel(t *models.TransactionType) string {
	if t == nil || !t.Valid() {
		return "unknown"
	}
	return string(*t)
}
