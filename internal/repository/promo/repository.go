package promo

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}
