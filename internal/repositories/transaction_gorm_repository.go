package repositories

import (
	"context"
	"fmt"

	"inventory/internal/models"

	"gorm.io/gorm"
)

// GORMTransactionRepository is a GORM implementation of TransactionRepository.
type GORMTransactionRepository struct {
	db *gorm.DB
}

// NewGORMTransactionRepository creates a new instance of GORMTransactionRepository.
func NewGORMTransactionRepository(db *gorm.DB) *GORMTransactionRepository {
	return &GORMTransactionRepository{
		db: db,
	}
}

// Create appends a ledger entry.
func (r *GORMTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListByProduct returns the ledger of one product, most recent first.
// Entries whose user no longer resolves keep an empty user name.
func (r *GORMTransactionRepository) ListByProduct(ctx context.Context, productID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.*, products.name AS product_name, COALESCE(users.name, '') AS user_name").
		Joins("JOIN products ON products.id = transactions.product_id").
		Joins("LEFT JOIN users ON users.id = transactions.user_id").
		Where("transactions.product_id = ?", productID).
		Order("transactions.transaction_date DESC, transactions.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get product history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}
