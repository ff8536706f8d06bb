package domain

import "time"

// Order statuses. Transitions are forward-only; there is no way back out
// of delivered or cancelled.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

type Order struct {
	ID              string     `json:"id"`
	IdentityID      string     `json:"-"`
	Items           []LineItem `json:"items"`
	Customer        Customer   `json:"customer"`
	ShippingAddress Address    `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentStatus   string     `json:"paymentStatus"`
	Status          string     `json:"status"`
	SubtotalCents   int64      `json:"subtotalCents"`
	DiscountCents   int64      `json:"discountCents"`
	ShippingCents   int64      `json:"shippingCents"`
	TaxCents        int64      `json:"taxCents"`
	TotalCents      int64      `json:"totalCents"`
	// IsRead is the authoritative "needs admin attention" flag. Nil only
	// on legacy rows written before the flag existed; every new order is
	// created with it set to false.
	IsRead    *bool     `json:"isRead,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// CanTransition reports whether an order status change is allowed.
func CanTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		return false
	}
}
