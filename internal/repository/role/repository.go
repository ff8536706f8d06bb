package role

import "context"

// Repository resolves role claims from the policy table keyed by user id.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (string, error)
}
