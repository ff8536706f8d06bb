package promo

import (
	"context"
	"errors"
	"strings"

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

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	const q = `
SELECT code, discount_percent, valid_from, valid_until
FROM promo_codes
WHERE code = $1
`
	var p domain.PromoCode
	err := r.pool.QueryRow(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&p.Code,
		&p.DiscountPercent,
		&p.ValidFrom,
		&p.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
