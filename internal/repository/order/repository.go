package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create inserts the order snapshot and decrements stock for every
	// item in the same transaction. A line whose conditional decrement
	// misses fails the whole transaction with a StockConflictError.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListUnread returns orders explicitly flagged unread.
	ListUnread(ctx context.Context) ([]domain.Order, error)
	// ListLegacyUnflagged returns orders written before the read flag
	// existed (flag absent entirely).
	ListLegacyUnflagged(ctx context.Context) ([]domain.Order, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, ids []string) error
	UpdateStatus(ctx context.Context, id, status string) error
}
