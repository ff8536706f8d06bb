package stock

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// GetLevel returns the live available quantity for a product size.
	GetLevel(ctx context.Context, productID, size string) (*domain.StockLevel, error)
	// GetLevels returns all size levels for a product.
	GetLevels(ctx context.Context, productID string) ([]domain.StockLevel, error)
}
