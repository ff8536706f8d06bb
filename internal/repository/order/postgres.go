package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *logrus.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, identity_id, customer_name, customer_email, customer_phone,
address_line1, address_city, address_state, address_postal_code,
payment_method, payment_status, status,
subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
is_read, created_at`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Conditional decrement per line. Holding the check and the write in
	// one statement closes the gap between re-validation and commit: the
	// second of two competing checkouts for the last unit loses here.
	var verdicts []domain.StockVerdict
	for _, item := range o.Items {
		cmd, err := tx.Exec(ctx, `
UPDATE product_stock
SET available = available - $1
WHERE product_id = $2 AND size = $3 AND available >= $1
`, item.Quantity, item.ProductID, item.Size)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			verdicts = append(verdicts, r.missVerdict(ctx, tx, item))
		}
	}
	if len(verdicts) > 0 {
		return &domain.StockConflictError{Verdicts: verdicts}
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO orders (
	id, identity_id, customer_name, customer_email, customer_phone,
	address_line1, address_city, address_state, address_postal_code,
	payment_method, payment_status, status,
	subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
	is_read, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE, $18)
`,
		o.ID, o.IdentityID, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.ShippingAddress.Line1, o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.PostalCode,
		o.PaymentMethod, o.PaymentStatus, o.Status,
		o.SubtotalCents, o.DiscountCents, o.ShippingCents, o.TaxCents, o.TotalCents,
		o.CreatedAt,
	); err != nil {
		return err
	}

	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, size, quantity, unit_price_cents, original_price_cents)
VALUES ($1, $2, $3, $4, $5, $6)
`, o.ID, item.ProductID, item.Size, item.Quantity, item.UnitPriceCents, item.OriginalPriceCents); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// missVerdict distinguishes an unknown product size from plain shortage.
func (r *postgresRepo) missVerdict(ctx context.Context, tx pgx.Tx, item domain.LineItem) domain.StockVerdict {
	v := domain.StockVerdict{ProductID: item.ProductID, Size: item.Size}
	var available int
	err := tx.QueryRow(ctx, `
SELECT available FROM product_stock WHERE product_id = $1 AND size = $2
`, item.ProductID, item.Size).Scan(&available)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		v.Reason = domain.StockReasonNotFound
	case err != nil:
		r.logger.WithError(err).WithField("product_id", item.ProductID).Warn("stock lookup after failed decrement")
		v.Reason = domain.StockReasonInsufficientStock
	default:
		v.Available = available
		v.Reason = domain.StockReasonInsufficientStock
	}
	return v
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE id::text = $1
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListUnread(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE is_read = FALSE
ORDER BY created_at DESC
`)
}

func (r *postgresRepo) ListLegacyUnflagged(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE is_read IS NULL
ORDER BY created_at DESC
`)
}

func (r *postgresRepo) MarkRead(ctx context.Context, id string) error {
	// Read state only moves false -> true; marking a read order again is
	// a no-op rather than an error.
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET is_read = TRUE
WHERE id = $1
`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkAllRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
UPDATE orders
SET is_read = TRUE
WHERE id = ANY($1)
`, ids)
	return err
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $1
WHERE id::text = $2
`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
SELECT product_id, size, quantity, unit_price_cents, original_price_cents
FROM order_items
WHERE order_id = $1
ORDER BY product_id, size
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ProductID, &item.Size, &item.Quantity, &item.UnitPriceCents, &item.OriginalPriceCents); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID, &o.IdentityID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.ShippingAddress.Line1, &o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.PostalCode,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.SubtotalCents, &o.DiscountCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents,
		&o.IsRead, &o.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
