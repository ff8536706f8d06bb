package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type stubValidator struct {
	verdicts []domain.StockVerdict
}

func (s *stubValidator) Validate(_ context.Context, cart *domain.Cart) ([]domain.StockVerdict, error) {
	if s.verdicts != nil {
		return s.verdicts, nil
	}
	verdicts := make([]domain.StockVerdict, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		verdicts = append(verdicts, domain.StockVerdict{ProductID: l.ProductID, Size: l.Size, OK: true, Available: l.Quantity})
	}
	return verdicts, nil
}

type stubCarts struct {
	cart *domain.Cart
}

func (s *stubCarts) Get(_ context.Context, _ string) (*domain.Cart, error) {
	return s.cart, nil
}

type stubWriter struct {
	orderID string
	err     error
	calls   int
	block   chan struct{}
}

func (s *stubWriter) Commit(_ context.Context, _ *domain.Cart, _ ordersvc.ShippingInfo, _ ordersvc.PaymentInfo) (string, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return "", s.err
	}
	return s.orderID, nil
}

func testShipping() ordersvc.ShippingInfo {
	return ordersvc.ShippingInfo{
		Customer: domain.Customer{Name: "Priya", Email: "priya@example.com", Phone: "+91-900000001"},
		Address:  domain.Address{Line1: "12 Lake Rd", City: "Pune", State: "MH", PostalCode: "411001"},
	}
}

func testCart() *domain.Cart {
	return &domain.Cart{
		ID:         "cart-1",
		IdentityID: "anon-1",
		Lines:      []domain.LineItem{{ProductID: "P1", Size: "M", Quantity: 2, UnitPriceCents: 500}},
	}
}

func newTestMachine(validator *stubValidator, writer *stubWriter) (*Machine, *Session) {
	logger := logrus.New()
	m := NewMachine(validator, &stubCarts{cart: testCart()}, writer, logger)
	sess := NewManager().Create("anon-1")
	return m, sess
}

func TestSubmitShippingMissingFieldsStaysPut(t *testing.T) {
	m, sess := newTestMachine(&stubValidator{}, &stubWriter{orderID: "ord-1"})

	info := testShipping()
	info.Customer.Phone = ""
	info.Address.PostalCode = " "

	err := m.SubmitShipping(sess, info)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validation.Fields) != 2 || validation.Fields[0] != "phone" || validation.Fields[1] != "postalCode" {
		t.Fatalf("expected every absent field listed, got %v", validation.Fields)
	}
	if sess.Snapshot().State != StateShipping {
		t.Fatalf("session left shipping: %s", sess.Snapshot().State)
	}
}

func TestSubmitPaymentMethodFields(t *testing.T) {
	m, sess := newTestMachine(&stubValidator{}, &stubWriter{orderID: "ord-1"})
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}

	err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "card", Fields: map[string]string{"cardNumber": "4111"}})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sess.Snapshot().State != StatePayment {
		t.Fatalf("incomplete payment must stay in payment: %s", sess.Snapshot().State)
	}

	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("cod needs no extra fields: %v", err)
	}
	snap := sess.Snapshot()
	if snap.State != StateReview {
		t.Fatalf("expected review, got %s", snap.State)
	}
	if len(snap.Verdicts) != 1 || !snap.Verdicts[0].OK {
		t.Fatalf("entering review must run a stock pass: %+v", snap.Verdicts)
	}
}

func TestBackPreservesEnteredData(t *testing.T) {
	m, sess := newTestMachine(&stubValidator{}, &stubWriter{orderID: "ord-1"})
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "upi", Fields: map[string]string{"upiId": "priya@upi"}}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	if err := m.Back(sess); err != nil {
		t.Fatalf("back to payment: %v", err)
	}
	if err := m.Back(sess); err != nil {
		t.Fatalf("back to shipping: %v", err)
	}

	snap := sess.Snapshot()
	if snap.State != StateShipping {
		t.Fatalf("expected shipping, got %s", snap.State)
	}
	if snap.Shipping.Customer.Name != "Priya" || snap.Payment.Fields["upiId"] != "priya@upi" {
		t.Fatalf("back navigation lost entered data: %+v", snap)
	}

	if err := m.Back(sess); err == nil {
		t.Fatal("back from shipping must be refused")
	}
}

func TestPlaceOrderHappyPath(t *testing.T) {
	writer := &stubWriter{orderID: "ord-42"}
	m, sess := newTestMachine(&stubValidator{}, writer)
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	orderID, err := m.PlaceOrder(context.Background(), sess)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if orderID != "ord-42" {
		t.Fatalf("unexpected order id %q", orderID)
	}
	snap := sess.Snapshot()
	if snap.State != StatePlaced || snap.OrderID != "ord-42" {
		t.Fatalf("expected placed session: %+v", snap)
	}
}

func TestPlaceOrderRefusedWhileInFlight(t *testing.T) {
	writer := &stubWriter{orderID: "ord-1", block: make(chan struct{})}
	m, sess := newTestMachine(&stubValidator{}, writer)
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	first := make(chan error, 1)
	go func() {
		_, err := m.PlaceOrder(context.Background(), sess)
		first <- err
	}()

	// Wait for the first call to reach the writer.
	deadline := time.Now().Add(2 * time.Second)
	for sess.Snapshot().State != StatePlacing {
		if time.Now().After(deadline) {
			t.Fatal("first place never entered placing")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := m.PlaceOrder(context.Background(), sess)
	if !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	close(writer.block)
	if err := <-first; err != nil {
		t.Fatalf("first place: %v", err)
	}
	if writer.calls != 1 {
		t.Fatalf("expected a single commit, got %d", writer.calls)
	}
}

func TestPlaceOrderStockConflictReturnsToReview(t *testing.T) {
	writer := &stubWriter{orderID: "ord-1"}
	validator := &stubValidator{}
	m, sess := newTestMachine(validator, writer)
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// Stock moves after review.
	validator.verdicts = []domain.StockVerdict{{ProductID: "P1", Size: "M", Available: 1, Reason: domain.StockReasonInsufficientStock}}

	_, err := m.PlaceOrder(context.Background(), sess)
	var conflict *domain.StockConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StockConflictError, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("commit must not run on conflict, got %d calls", writer.calls)
	}

	snap := sess.Snapshot()
	if snap.State != StateReview {
		t.Fatalf("conflict must return the session to review: %s", snap.State)
	}
	if len(snap.Verdicts) != 1 || snap.Verdicts[0].Reason != domain.StockReasonInsufficientStock {
		t.Fatalf("review must carry the failing verdicts: %+v", snap.Verdicts)
	}
}

func TestPlaceOrderWriterFailureIsRecoverable(t *testing.T) {
	writer := &stubWriter{err: errors.New("db down")}
	m, sess := newTestMachine(&stubValidator{}, writer)
	if err := m.SubmitShipping(sess, testShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if err := m.SubmitPayment(context.Background(), sess, ordersvc.PaymentInfo{Method: "cod"}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	if _, err := m.PlaceOrder(context.Background(), sess); err == nil {
		t.Fatal("expected commit failure")
	}
	if sess.Snapshot().State != StateFailed {
		t.Fatalf("expected failed, got %s", sess.Snapshot().State)
	}

	if err := m.ReturnToReview(sess); err != nil {
		t.Fatalf("return to review: %v", err)
	}
	writer.err = nil
	writer.orderID = "ord-99"
	orderID, err := m.PlaceOrder(context.Background(), sess)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if orderID != "ord-99" {
		t.Fatalf("unexpected order id %q", orderID)
	}
}

func TestManagerLifecycle(t *testing.T) {
	mgr := NewManager()
	sess := mgr.Create("anon-1")
	if sess.Snapshot().State != StateShipping {
		t.Fatalf("new session must start at shipping: %s", sess.Snapshot().State)
	}

	got, err := mgr.Get(sess.ID)
	if err != nil || got.ID != sess.ID {
		t.Fatalf("get: %v", err)
	}

	mgr.Release(sess.ID)
	if _, err := mgr.Get(sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("released session must be gone, got %v", err)
	}
}

func TestManagerSweepsExpiredOnCreate(t *testing.T) {
	mgr := NewManager()
	mgr.ttl = time.Millisecond

	abandoned := mgr.Create("anon-1")
	time.Sleep(5 * time.Millisecond)

	// The abandoned session is never touched again; the next create must
	// still evict it.
	mgr.Create("anon-2")

	mgr.mu.RLock()
	_, stillHeld := mgr.sessions[abandoned.ID]
	held := len(mgr.sessions)
	mgr.mu.RUnlock()
	if stillHeld {
		t.Fatal("expired session must be swept on create")
	}
	if held != 1 {
		t.Fatalf("expected only the live session, got %d", held)
	}
}
