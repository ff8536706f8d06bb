package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

// State is a checkout step. Placed is the only terminal success state;
// Failed is recoverable back to Review so the user is never stranded.
type State string

const (
	StateShipping State = "shipping"
	StatePayment  State = "payment"
	StateReview   State = "review"
	StatePlacing  State = "placing"
	StatePlaced   State = "placed"
	StateFailed   State = "failed"
)

// Session is one checkout attempt for one identity. All transitions happen
// under its mutex; a commit in flight (Placing) refuses a second submission
// instead of producing a second order.
type Session struct {
	mu sync.Mutex

	ID         string
	IdentityID string

	state    State
	shipping ordersvc.ShippingInfo
	payment  ordersvc.PaymentInfo
	verdicts []domain.StockVerdict
	orderID  string
	lastErr  error
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	ID         string                `json:"id"`
	State      State                 `json:"state"`
	OrderID    string                `json:"orderId,omitempty"`
	Verdicts   []domain.StockVerdict `json:"stockVerdicts,omitempty"`
	LastError  string                `json:"lastError,omitempty"`
	Shipping   ordersvc.ShippingInfo `json:"-"`
	Payment    ordersvc.PaymentInfo  `json:"-"`
	IdentityID string                `json:"-"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.ID,
		State:      s.state,
		OrderID:    s.orderID,
		Verdicts:   append([]domain.StockVerdict(nil), s.verdicts...),
		Shipping:   s.shipping,
		Payment:    s.payment,
		IdentityID: s.IdentityID,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Machine drives sessions through the checkout steps, gated by the stock
// validator and committed by the order writer.
type Machine struct {
	validator stockValidator
	carts     cartGetter
	writer    orderWriter
	logger    *logrus.Logger
}

type stockValidator interface {
	Validate(ctx context.Context, cart *domain.Cart) ([]domain.StockVerdict, error)
}

type cartGetter interface {
	Get(ctx context.Context, identityID string) (*domain.Cart, error)
}

type orderWriter interface {
	Commit(ctx context.Context, cart *domain.Cart, shipping ordersvc.ShippingInfo, payment ordersvc.PaymentInfo) (string, error)
}

func NewMachine(validator stockValidator, carts cartGetter, writer orderWriter, logger *logrus.Logger) *Machine {
	return &Machine{validator: validator, carts: carts, writer: writer, logger: logger}
}

// SubmitShipping validates presence of the mandatory address fields and
// advances Shipping -> Payment. On missing fields the session stays in
// Shipping and the error lists every absent field.
func (m *Machine) SubmitShipping(sess *Session, info ordersvc.ShippingInfo) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateShipping {
		return domain.ErrInvalidTransition
	}
	if missing := missingShippingFields(info); len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}

	sess.shipping = info
	sess.state = StatePayment
	return nil
}

// SubmitPayment checks the method-specific fields are present (no semantic
// card/UPI validation) and advances Payment -> Review. Entering Review runs
// a stock pass so the review page can show per-line availability.
func (m *Machine) SubmitPayment(ctx context.Context, sess *Session, info ordersvc.PaymentInfo) error {
	sess.mu.Lock()
	if sess.state != StatePayment {
		sess.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	identityID := sess.IdentityID
	sess.mu.Unlock()

	if missing := missingPaymentFields(info); len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}

	cart, err := m.carts.Get(ctx, identityID)
	if err != nil {
		return err
	}
	verdicts, err := m.validator.Validate(ctx, cart)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != StatePayment {
		return domain.ErrInvalidTransition
	}
	sess.payment = info
	sess.verdicts = verdicts
	sess.state = StateReview
	return nil
}

// PlaceOrder runs Review -> Placing -> Placed/Failed. A fresh stock pass
// gates the transition; any failing line keeps the session in Review with
// itemized verdicts and no quantity auto-correction. While a commit is in
// flight a second call gets ErrDuplicateSubmission.
func (m *Machine) PlaceOrder(ctx context.Context, sess *Session) (string, error) {
	sess.mu.Lock()
	switch sess.state {
	case StateReview:
	case StatePlacing:
		sess.mu.Unlock()
		return "", domain.ErrDuplicateSubmission
	default:
		sess.mu.Unlock()
		return "", domain.ErrInvalidTransition
	}
	sess.state = StatePlacing
	identityID := sess.IdentityID
	shipping := sess.shipping
	payment := sess.payment
	sess.mu.Unlock()

	orderID, err := m.place(ctx, identityID, shipping, payment)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err != nil {
		var conflict *domain.StockConflictError
		if errors.As(err, &conflict) {
			// Stock moved between review and commit: back to Review
			// with the per-line reasons, not a dead end.
			sess.state = StateReview
			sess.verdicts = conflict.Verdicts
		} else {
			sess.state = StateFailed
			m.logger.WithError(err).WithField("session_id", sess.ID).Error("order placement failed")
		}
		sess.lastErr = err
		return "", err
	}

	sess.state = StatePlaced
	sess.orderID = orderID
	sess.lastErr = nil
	return orderID, nil
}

func (m *Machine) place(ctx context.Context, identityID string, shipping ordersvc.ShippingInfo, payment ordersvc.PaymentInfo) (string, error) {
	cart, err := m.carts.Get(ctx, identityID)
	if err != nil {
		return "", err
	}

	verdicts, err := m.validator.Validate(ctx, cart)
	if err != nil {
		return "", err
	}
	if !allOK(verdicts) {
		return "", &domain.StockConflictError{Verdicts: verdicts}
	}

	return m.writer.Commit(ctx, cart, shipping, payment)
}

// Back steps Payment -> Shipping or Review -> Payment, keeping everything
// already entered.
func (m *Machine) Back(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case StatePayment:
		sess.state = StateShipping
	case StateReview:
		sess.state = StatePayment
	default:
		return domain.ErrInvalidTransition
	}
	return nil
}

// ReturnToReview recovers a Failed session for a manual retry. There is no
// automatic retry loop.
func (m *Machine) ReturnToReview(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateFailed {
		return domain.ErrInvalidTransition
	}
	sess.state = StateReview
	return nil
}

func missingShippingFields(info ordersvc.ShippingInfo) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("name", info.Customer.Name)
	check("email", info.Customer.Email)
	check("phone", info.Customer.Phone)
	check("addressLine", info.Address.Line1)
	check("city", info.Address.City)
	check("state", info.Address.State)
	check("postalCode", info.Address.PostalCode)
	return missing
}

func missingPaymentFields(info ordersvc.PaymentInfo) []string {
	var missing []string
	method := strings.TrimSpace(strings.ToLower(info.Method))
	if method == "" {
		return []string{"paymentMethod"}
	}

	require := func(names ...string) {
		for _, name := range names {
			if strings.TrimSpace(info.Fields[name]) == "" {
				missing = append(missing, name)
			}
		}
	}
	switch method {
	case "card":
		require("cardNumber", "expiry", "cvv")
	case "upi":
		require("upiId")
	case "cod":
		// Pay on delivery needs nothing beyond the selection.
	default:
		missing = append(missing, "paymentMethod")
	}
	return missing
}

func allOK(verdicts []domain.StockVerdict) bool {
	for _, v := range verdicts {
		if !v.OK {
			return false
		}
	}
	return true
}
