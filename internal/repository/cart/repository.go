package cart

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetOrCreateByIdentity(ctx context.Context, identityID string) (*domain.Cart, error)
	GetByIdentity(ctx context.Context, identityID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, cartID string, line domain.LineItem) error
	SetLineQuantity(ctx context.Context, cartID, productID, size string, quantity int) error
	RemoveLine(ctx context.Context, cartID, productID, size string) error
	SetPromo(ctx context.Context, cartID, code string, discountPercent int) error
	Clear(ctx context.Context, cartID string) error
}
