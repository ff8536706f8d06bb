package cart

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, order_items, orders, product_stock, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sku string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (sku, name, price_cents, original_price_cents, sizes)
VALUES ($1, 'Tee', 500, 600, '{S,M,L}')
RETURNING id::text
`, sku).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func TestPostgres_LineLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	productID := insertProduct(ctx, t, pool, "SKU-1")
	repo := NewPostgres(pool)

	cart, err := repo.GetOrCreateByIdentity(ctx, "anon-1")
	if err != nil {
		t.Fatalf("GetOrCreateByIdentity: %v", err)
	}
	again, err := repo.GetOrCreateByIdentity(ctx, "anon-1")
	if err != nil {
		t.Fatalf("second GetOrCreateByIdentity: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected the same cart, got %s and %s", cart.ID, again.ID)
	}

	line := domain.LineItem{ProductID: productID, Size: "M", Quantity: 1, UnitPriceCents: 500, OriginalPriceCents: 600}
	if err := repo.UpsertLine(ctx, cart.ID, line); err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}
	line.Quantity = 3
	if err := repo.UpsertLine(ctx, cart.ID, line); err != nil {
		t.Fatalf("UpsertLine merge: %v", err)
	}

	fetched, err := repo.GetByIdentity(ctx, "anon-1")
	if err != nil {
		t.Fatalf("GetByIdentity: %v", err)
	}
	if len(fetched.Lines) != 1 || fetched.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines %+v", fetched.Lines)
	}

	if err := repo.SetLineQuantity(ctx, cart.ID, productID, "M", 2); err != nil {
		t.Fatalf("SetLineQuantity: %v", err)
	}
	if err := repo.SetLineQuantity(ctx, cart.ID, productID, "XL", 2); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for absent line, got %v", err)
	}

	if err := repo.RemoveLine(ctx, cart.ID, productID, "XL"); err != nil {
		t.Fatalf("RemoveLine absent must be a no-op: %v", err)
	}
	if err := repo.RemoveLine(ctx, cart.ID, "not-a-uuid", "M"); err != nil {
		t.Fatalf("RemoveLine with a malformed product id must be a no-op: %v", err)
	}
	if err := repo.RemoveLine(ctx, cart.ID, productID, "M"); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}

	fetched, err = repo.GetByIdentity(ctx, "anon-1")
	if err != nil {
		t.Fatalf("GetByIdentity after remove: %v", err)
	}
	if len(fetched.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", fetched.Lines)
	}
}

func TestPostgres_PromoAndClear(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	productID := insertProduct(ctx, t, pool, "SKU-2")
	repo := NewPostgres(pool)

	cart, err := repo.GetOrCreateByIdentity(ctx, "anon-2")
	if err != nil {
		t.Fatalf("GetOrCreateByIdentity: %v", err)
	}
	if err := repo.UpsertLine(ctx, cart.ID, domain.LineItem{ProductID: productID, Size: "S", Quantity: 1, UnitPriceCents: 500, OriginalPriceCents: 600}); err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}
	if err := repo.SetPromo(ctx, cart.ID, "SAVE10", 10); err != nil {
		t.Fatalf("SetPromo: %v", err)
	}

	fetched, err := repo.GetByIdentity(ctx, "anon-2")
	if err != nil {
		t.Fatalf("GetByIdentity: %v", err)
	}
	if fetched.PromoCode != "SAVE10" || fetched.DiscountPercent != 10 {
		t.Fatalf("promo not attached %+v", fetched)
	}

	if err := repo.Clear(ctx, cart.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	fetched, err = repo.GetByIdentity(ctx, "anon-2")
	if err != nil {
		t.Fatalf("GetByIdentity after clear: %v", err)
	}
	if len(fetched.Lines) != 0 || fetched.PromoCode != "" || fetched.DiscountPercent != 0 {
		t.Fatalf("clear left state behind %+v", fetched)
	}
}
