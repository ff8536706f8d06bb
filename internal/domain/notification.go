package domain

import "time"

// Notification is a read-projection of an order needing admin attention.
// It is derived, not authoritative; the authoritative state is Order.IsRead.
type Notification struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	TotalCents   int64     `json:"totalCents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	Read         bool      `json:"read"`
}
