package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, sku, name, price_cents, original_price_cents, currency, sizes, created_at
FROM products
WHERE id::text = $1
`
	var p domain.Product
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.PriceCents,
		&p.OriginalPriceCents,
		&p.Currency,
		&p.Sizes,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
