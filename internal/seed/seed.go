package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	SKU                string
	Name               string
	PriceCents         int64
	OriginalPriceCents int64
	Currency           string
	Sizes              []string
	Stock              int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:                "SKU-TEE-CLASSIC",
			Name:               "Classic T-Shirt",
			PriceCents:         1999,
			OriginalPriceCents: 2499,
			Currency:           "USD",
			Sizes:              []string{"S", "M", "L", "XL"},
			Stock:              25,
		},
		{
			SKU:                "SKU-HOODIE-ZIP",
			Name:               "Zip Hoodie",
			PriceCents:         4999,
			OriginalPriceCents: 4999,
			Currency:           "USD",
			Sizes:              []string{"M", "L"},
			Stock:              10,
		},
		{
			SKU:                "SKU-CAP-LOGO",
			Name:               "Logo Cap",
			PriceCents:         1499,
			OriginalPriceCents: 1799,
			Currency:           "USD",
			Sizes:              []string{"OS"},
			Stock:              40,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	if err := upsertPromo(ctx, pool, "SAVE10", 10, 365*24*time.Hour); err != nil {
		return fmt.Errorf("upsert promo: %w", err)
	}
	if err := upsertPromo(ctx, pool, "SAVE20", 20, 30*24*time.Hour); err != nil {
		return fmt.Errorf("upsert promo: %w", err)
	}

	if err := upsertRole(ctx, pool, "admin-1", "admin"); err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (sku, name, price_cents, original_price_cents, currency, sizes)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    currency = EXCLUDED.currency,
    sizes = EXCLUDED.sizes
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, q, p.SKU, p.Name, p.PriceCents, p.OriginalPriceCents, p.Currency, p.Sizes).Scan(&productID); err != nil {
		return err
	}

	for _, size := range p.Sizes {
		if _, err := pool.Exec(ctx, `
INSERT INTO product_stock (product_id, size, available)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, size) DO UPDATE SET available = EXCLUDED.available
`, productID, size, p.Stock); err != nil {
			return err
		}
	}
	return nil
}

func upsertPromo(ctx context.Context, pool *pgxpool.Pool, code string, percent int, validity time.Duration) error {
	_, err := pool.Exec(ctx, `
INSERT INTO promo_codes (code, discount_percent, valid_from, valid_until)
VALUES ($1, $2, now(), now() + $3)
ON CONFLICT (code) DO UPDATE
SET discount_percent = EXCLUDED.discount_percent,
    valid_until = EXCLUDED.valid_until
`, code, percent, validity)
	return err
}

func upsertRole(ctx context.Context, pool *pgxpool.Pool, userID, role string) error {
	_, err := pool.Exec(ctx, `
INSERT INTO user_roles (user_id, role)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
`, userID, role)
	return err
}
