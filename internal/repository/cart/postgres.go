package cart

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

const cartColumns = `id::text, identity_id, COALESCE(promo_code, ''), discount_percent, created_at, updated_at`

func (r *postgresRepo) GetOrCreateByIdentity(ctx context.Context, identityID string) (*domain.Cart, error) {
	cart, err := r.GetByIdentity(ctx, identityID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	const q = `
INSERT INTO carts (identity_id, discount_percent)
VALUES ($1, 0)
RETURNING ` + cartColumns + `
`
	return r.scanCart(ctx, r.pool.QueryRow(ctx, q, identityID))
}

func (r *postgresRepo) GetByIdentity(ctx context.Context, identityID string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE identity_id = $1
ORDER BY created_at DESC
LIMIT 1
`
	return r.scanCart(ctx, r.pool.QueryRow(ctx, q, identityID))
}

func (r *postgresRepo) UpsertLine(ctx context.Context, cartID string, line domain.LineItem) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, size, quantity, unit_price_cents, original_price_cents)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cart_id, product_id, size)
DO UPDATE SET quantity = EXCLUDED.quantity
`, cartID, line.ProductID, line.Size, line.Quantity, line.UnitPriceCents, line.OriginalPriceCents); err != nil {
		return err
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) SetLineQuantity(ctx context.Context, cartID, productID, size string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE cart_id = $2 AND product_id = $3 AND size = $4
`, quantity, cartID, productID, size)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, productID, size string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Removing an absent line is a no-op, not an error.
	if _, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE cart_id = $1 AND product_id::text = $2 AND size = $3
`, cartID, productID, size); err != nil {
		return err
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) SetPromo(ctx context.Context, cartID, code string, discountPercent int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET promo_code = $1, discount_percent = $2, updated_at = now()
WHERE id = $3
`, code, discountPercent, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
UPDATE carts
SET promo_code = NULL, discount_percent = 0, updated_at = now()
WHERE id = $1
`, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) scanCart(ctx context.Context, row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	if err := row.Scan(
		&cart.ID,
		&cart.IdentityID,
		&cart.PromoCode,
		&cart.DiscountPercent,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT product_id, size, quantity, unit_price_cents, original_price_cents
FROM cart_lines
WHERE cart_id = $1
ORDER BY added_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.LineItem
		if err := rows.Scan(
			&line.ProductID,
			&line.Size,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.OriginalPriceCents,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
