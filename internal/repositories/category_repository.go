package repositories

import (
	"context"

	"inventory/internal/models"
)

// CategoryRepository defines read access to the category reference data.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	// Ensure creates the named categories that do not exist yet.
	Ensure(ctx context.Context, names ...string) error
}
