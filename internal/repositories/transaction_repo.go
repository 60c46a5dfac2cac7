package repositories

import (
	"context"

	"inventory/internal/models"
)

// TransactionRepository defines the interface for ledger access. The ledger
// is append-only: there is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	ListByProduct(ctx context.Context, productID uint) ([]models.HistoryEntry, error)
}
