package role

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

func (r *postgresRepo) GetByUserID(ctx context.Context, userID string) (string, error) {
	const q = `
SELECT role
FROM user_roles
WHERE user_id = $1
`
	var role string
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absent from the policy table means plain customer, not an error.
			return domain.RoleCustomer, nil
		}
		return "", err
	}
	return role, nil
}
