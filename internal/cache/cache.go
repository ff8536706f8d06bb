package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// ErrCacheMiss is returned when no snapshot exists for the identity.
var ErrCacheMiss = errors.New("cache miss")

// CartCache stores per-identity cart snapshots so a session can restore its
// cart without hitting the primary store.
type CartCache interface {
	Get(ctx context.Context, identityID string) (*domain.Cart, error)
	Set(ctx context.Context, identityID string, cart *domain.Cart) error
	Delete(ctx context.Context, identityID string) error
}
