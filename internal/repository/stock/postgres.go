package stock

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

func (r *postgresRepo) GetLevel(ctx context.Context, productID, size string) (*domain.StockLevel, error) {
	const q = `
SELECT product_id, size, available
FROM product_stock
WHERE product_id::text = $1 AND size = $2
`
	var level domain.StockLevel
	if err := r.pool.QueryRow(ctx, q, productID, size).Scan(&level.ProductID, &level.Size, &level.Available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

func (r *postgresRepo) GetLevels(ctx context.Context, productID string) ([]domain.StockLevel, error) {
	const q = `
SELECT product_id, size, available
FROM product_stock
WHERE product_id::text = $1
ORDER BY size
`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.ProductID, &level.Size, &level.Available); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return levels, nil
}
