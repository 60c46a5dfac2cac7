package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products. Categories are reference data seeded at startup.
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
}

// Product represents a product in the inventory. Stock is the authoritative
// running balance; it only changes through stock adjustments and ledger
// transactions.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description *string         `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	CategoryID  uint            `json:"categoryId" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CategorizedProduct is a product joined with the name of its category.
type CategorizedProduct struct {
	Product
	CategoryName string `json:"categoryName"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products   []Product `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// CreateProductInput carries the fields of a new product. Pointers separate
// a missing field from an explicit zero.
type CreateProductInput struct {
	Name        *string          `json:"name" validate:"required,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	CategoryID  *uint            `json:"categoryId" validate:"required,gt=0"`
}

// ProductUpdate is a partial update. Only fields with Set are written.
// Stock is intentionally absent.
type ProductUpdate struct {
	Name        Optional[string]          `json:"name"`
	Description Optional[string]          `json:"description"`
	Price       Optional[decimal.Decimal] `json:"price"`
	CategoryID  Optional[uint]            `json:"categoryId"`
}

// IsEmpty reports whether the update carries no field at all.
func (u ProductUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Description.Set && !u.Price.Set && !u.CategoryID.Set
}
