package order

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type stubOrderRepo struct {
	created *domain.Order
	stored  map[string]*domain.Order
	status  map[string]string
	err     error
}

func (s *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if s.err != nil {
		return s.err
	}
	s.created = o
	return nil
}

func (s *stubOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := s.stored[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	if s.status == nil {
		s.status = make(map[string]string)
	}
	s.status[id] = status
	return nil
}

type stubClearer struct {
	cleared []string
	err     error
}

func (s *stubClearer) Clear(_ context.Context, identityID string) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, identityID)
	return nil
}

type stubPublisher struct {
	published []*domain.Order
	err       error
}

func (s *stubPublisher) PublishOrderCreated(o *domain.Order) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, o)
	return nil
}

func testPolicy() Policy {
	return Policy{ShippingFeeCents: 4900, FreeShippingThresholdCents: 100000, TaxPercent: 0}
}

func pricedCart() *domain.Cart {
	return &domain.Cart{
		ID:              "cart-1",
		IdentityID:      "anon-1",
		PromoCode:       "SAVE10",
		DiscountPercent: 10,
		Lines: []domain.LineItem{
			{ProductID: "P1", Size: "M", Quantity: 2, UnitPriceCents: 500},
		},
	}
}

func TestCommitPricesAndPersists(t *testing.T) {
	repo := &stubOrderRepo{}
	clearer := &stubClearer{}
	publisher := &stubPublisher{}
	w := NewWriter(repo, clearer, publisher, testPolicy(), logrus.New())

	orderID, err := w.Commit(context.Background(), pricedCart(), ShippingInfo{
		Customer: domain.Customer{Name: "Priya", Email: "p@example.com", Phone: "1"},
		Address:  domain.Address{Line1: "12 Lake Rd", City: "Pune", State: "MH", PostalCode: "411001"},
	}, PaymentInfo{Method: "cod"})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if orderID == "" || repo.created == nil || repo.created.ID != orderID {
		t.Fatalf("order not persisted: id=%q created=%+v", orderID, repo.created)
	}

	o := repo.created
	if o.SubtotalCents != 1000 || o.DiscountCents != 100 || o.ShippingCents != 4900 || o.TaxCents != 0 {
		t.Fatalf("unexpected pricing: %+v", o)
	}
	if o.TotalCents != 1000-100+4900 {
		t.Fatalf("unexpected total %d", o.TotalCents)
	}
	if o.Status != domain.OrderStatusPending {
		t.Fatalf("new orders start pending, got %q", o.Status)
	}
	if o.IsRead != nil {
		t.Fatalf("writer leaves the read flag to the store, got %v", *o.IsRead)
	}

	if len(clearer.cleared) != 1 || clearer.cleared[0] != "anon-1" {
		t.Fatalf("cart not cleared: %v", clearer.cleared)
	}
	if len(publisher.published) != 1 || publisher.published[0].ID != orderID {
		t.Fatalf("event not published: %v", publisher.published)
	}
}

func TestCommitWaivesShippingAtThreshold(t *testing.T) {
	repo := &stubOrderRepo{}
	w := NewWriter(repo, &stubClearer{}, nil, testPolicy(), logrus.New())

	cart := pricedCart()
	cart.DiscountPercent = 0
	cart.Lines[0].Quantity = 200 // subtotal 100000, exactly at threshold

	if _, err := w.Commit(context.Background(), cart, ShippingInfo{}, PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if repo.created.ShippingCents != 0 {
		t.Fatalf("shipping must be waived at the threshold, got %d", repo.created.ShippingCents)
	}
	if repo.created.TotalCents != 100000 {
		t.Fatalf("unexpected total %d", repo.created.TotalCents)
	}
}

func TestCommitRejectsEmptyCart(t *testing.T) {
	w := NewWriter(&stubOrderRepo{}, &stubClearer{}, nil, testPolicy(), logrus.New())

	_, err := w.Commit(context.Background(), &domain.Cart{ID: "cart-1"}, ShippingInfo{}, PaymentInfo{Method: "cod"})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommitSucceedsWhenClearOrPublishFail(t *testing.T) {
	repo := &stubOrderRepo{}
	clearer := &stubClearer{err: errors.New("redis down")}
	publisher := &stubPublisher{err: errors.New("broker down")}
	w := NewWriter(repo, clearer, publisher, testPolicy(), logrus.New())

	orderID, err := w.Commit(context.Background(), pricedCart(), ShippingInfo{}, PaymentInfo{Method: "cod"})
	if err != nil {
		t.Fatalf("commit must survive side-effect failures: %v", err)
	}
	if orderID == "" || repo.created == nil {
		t.Fatal("order must still be persisted")
	}
}

func TestCommitPropagatesStockConflict(t *testing.T) {
	conflict := &domain.StockConflictError{Verdicts: []domain.StockVerdict{
		{ProductID: "P1", Size: "M", Available: 1, Reason: domain.StockReasonInsufficientStock},
	}}
	repo := &stubOrderRepo{err: conflict}
	clearer := &stubClearer{}
	w := NewWriter(repo, clearer, nil, testPolicy(), logrus.New())

	_, err := w.Commit(context.Background(), pricedCart(), ShippingInfo{}, PaymentInfo{Method: "cod"})
	var got *domain.StockConflictError
	if !errors.As(err, &got) {
		t.Fatalf("expected stock conflict, got %v", err)
	}
	if len(clearer.cleared) != 0 {
		t.Fatal("failed commit must not clear the cart")
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	repo := &stubOrderRepo{stored: map[string]*domain.Order{
		"ord-1": {ID: "ord-1", Status: domain.OrderStatusPending},
		"ord-2": {ID: "ord-2", Status: domain.OrderStatusDelivered},
	}}
	w := NewWriter(repo, &stubClearer{}, nil, testPolicy(), logrus.New())

	if err := w.UpdateStatus(context.Background(), "ord-1", domain.OrderStatusProcessing); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if repo.status["ord-1"] != domain.OrderStatusProcessing {
		t.Fatalf("status not applied: %v", repo.status)
	}

	if err := w.UpdateStatus(context.Background(), "ord-1", domain.OrderStatusDelivered); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pending -> delivered must be refused, got %v", err)
	}
	if err := w.UpdateStatus(context.Background(), "ord-2", domain.OrderStatusPending); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("delivered is terminal, got %v", err)
	}
	if err := w.UpdateStatus(context.Background(), "missing", domain.OrderStatusProcessing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown order: %v", err)
	}
}
