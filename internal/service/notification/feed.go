package notification

import (
	"context"

	"storefront/internal/domain"
)

// OrderEvent is one order surfacing on the live feed.
type OrderEvent struct {
	Order domain.Order
}

// Handle is a live subscription. Events closes when the subscription ends;
// Err reports why, if it ended abnormally. Cancel must be called on
// teardown or the connection leaks.
type Handle interface {
	Events() <-chan OrderEvent
	Err() error
	Cancel()
}

// Feed produces live order subscriptions.
type Feed interface {
	Subscribe(ctx context.Context) (Handle, error)
}
