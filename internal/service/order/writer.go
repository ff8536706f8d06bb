package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// Policy is the fixed shipping and tax schedule applied at commit.
type Policy struct {
	ShippingFeeCents           int64
	FreeShippingThresholdCents int64
	TaxPercent                 int
}

// ShippingInfo is the customer contact and delivery address collected in
// the shipping step.
type ShippingInfo struct {
	Customer domain.Customer
	Address  domain.Address
}

// PaymentInfo is the method selection from the payment step. Only
// syntactic presence is validated; gateway semantics are out of scope.
type PaymentInfo struct {
	Method string
	Fields map[string]string
}

// Writer commits order snapshots. The actual stock decrement and insert
// happen in one repository transaction so two competing commits for the
// last unit cannot both succeed.
type Writer struct {
	repo      orderRepo
	carts     cartClearer
	publisher Publisher
	policy    Policy
	logger    *logrus.Logger
}

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type cartClearer interface {
	Clear(ctx context.Context, identityID string) error
}

// Publisher emits the order.created event consumed by the admin
// notification feed.
type Publisher interface {
	PublishOrderCreated(o *domain.Order) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(*domain.Order) error { return nil }

func NewWriter(repo orderRepo, carts cartClearer, publisher Publisher, policy Policy, logger *logrus.Logger) *Writer {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Writer{repo: repo, carts: carts, publisher: publisher, policy: policy, logger: logger}
}

// Commit prices the cart, writes the immutable order snapshot and clears
// the cart. It returns the new order id.
func (w *Writer) Commit(ctx context.Context, cart *domain.Cart, shipping ShippingInfo, payment PaymentInfo) (string, error) {
	if len(cart.Lines) == 0 {
		return "", &domain.ValidationError{Fields: []string{"cart"}}
	}
	if payment.Method == "" {
		return "", &domain.ValidationError{Fields: []string{"paymentMethod"}}
	}

	subtotal := cart.SubtotalCents()
	discount := subtotal * int64(cart.DiscountPercent) / 100
	shippingCents := w.policy.ShippingFeeCents
	if subtotal >= w.policy.FreeShippingThresholdCents {
		shippingCents = 0
	}
	tax := subtotal * int64(w.policy.TaxPercent) / 100

	items := make([]domain.LineItem, len(cart.Lines))
	copy(items, cart.Lines)

	o := &domain.Order{
		ID:              uuid.New().String(),
		IdentityID:      cart.IdentityID,
		Items:           items,
		Customer:        shipping.Customer,
		ShippingAddress: shipping.Address,
		PaymentMethod:   payment.Method,
		PaymentStatus:   "pending",
		Status:          domain.OrderStatusPending,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		ShippingCents:   shippingCents,
		TaxCents:        tax,
		TotalCents:      subtotal - discount + shippingCents + tax,
		CreatedAt:       time.Now().UTC(),
	}

	if err := w.repo.Create(ctx, o); err != nil {
		return "", err
	}

	if err := w.carts.Clear(ctx, cart.IdentityID); err != nil {
		// The order exists; a leftover cart is recoverable, so log and
		// keep going rather than failing the placement.
		w.logger.WithError(err).WithField("order_id", o.ID).Warn("clear cart after commit failed")
	}

	if err := w.publisher.PublishOrderCreated(o); err != nil {
		// The aggregator reconciles from the store on its next snapshot,
		// so a lost event is repaired there.
		w.logger.WithError(err).WithField("order_id", o.ID).Warn("publish order.created failed")
	}

	return o.ID, nil
}

// UpdateStatus applies a forward-only status change to an order.
func (w *Writer) UpdateStatus(ctx context.Context, id, to string) error {
	current, err := w.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanTransition(current.Status, to) {
		return domain.ErrInvalidTransition
	}
	return w.repo.UpdateStatus(ctx, id, to)
}
