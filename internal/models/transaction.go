package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a stock movement.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionSale     TransactionType = "sale"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionPurchase || t == TransactionSale
}

// Transaction is an immutable ledger entry recording a purchase or a sale.
type Transaction struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	ProductID       uint            `json:"productId" gorm:"not null;index"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	Type            TransactionType `json:"type" gorm:"type:varchar(16);not null"`
	UserID          uint            `json:"userId" gorm:"not null;index"`
	TransactionDate time.Time       `json:"transactionDate" gorm:"not null;index"`
}

// RecordTransactionInput is the request to append a ledger entry.
type RecordTransactionInput struct {
	ProductID *uint            `json:"productId" validate:"required,gt=0"`
	Quantity  *int             `json:"quantity" validate:"required,gt=0"`
	Type      *TransactionType `json:"type" validate:"required,oneof=purchase sale"`
	UserID    *uint            `json:"userId" validate:"required,gt=0"`
}

// TransactionResult is a freshly recorded transaction together with the
// stock level before and after it was applied.
type TransactionResult struct {
	Transaction
	ProductName   string `json:"productName"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
}

// HistoryEntry is a ledger row joined with product and user names.
type HistoryEntry struct {
	Transaction
	ProductName string `json:"productName"`
	UserName    string `json:"userName"`
}

// StockAdjustment describes a direct stock mutation that bypassed the ledger.
type StockAdjustment struct {
	ProductID       uint            `json:"productId"`
	TransactionType TransactionType `json:"transactionType"`
	Quantity        int             `json:"quantity"`
	PreviousStock   int             `json:"previousStock"`
	NewStock        int             `json:"newStock"`
}

// InventoryValue is the derived valuation of all stock on hand.
type InventoryValue struct {
	TotalValue decimal.Decimal `json:"totalValue"`
	Currency   string          `json:"currency"`
}
