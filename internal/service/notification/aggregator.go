package notification

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// Aggregator maintains the back-office unread-order view: a snapshot from
// the order store merged with live feed events, deduplicated by order id.
// An audible alert fires only when the unread count rises above the last
// observed value; the initial load never alerts.
type Aggregator struct {
	repo        orderRepo
	feed        Feed
	broadcaster Broadcaster
	logger      *logrus.Logger

	mu       sync.Mutex
	byID     map[string]domain.Notification
	last     int
	primed   bool
	handle   Handle
	syncErr  error
	stopOnce sync.Once
}

type orderRepo interface {
	ListUnread(ctx context.Context) ([]domain.Order, error)
	ListLegacyUnflagged(ctx context.Context) ([]domain.Order, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, ids []string) error
}

// Broadcaster pushes view changes out to connected admin sessions.
type Broadcaster interface {
	Broadcast(messageType string, data interface{}, source string)
}

// NopBroadcaster discards broadcasts.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, interface{}, string) {}

func NewAggregator(repo orderRepo, feed Feed, broadcaster Broadcaster, logger *logrus.Logger) *Aggregator {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Aggregator{
		repo:        repo,
		feed:        feed,
		broadcaster: broadcaster,
		logger:      logger,
		byID:        make(map[string]domain.Notification),
	}
}

// Start loads the initial snapshot and opens the live subscription.
func (a *Aggregator) Start(ctx context.Context) error {
	if err := a.loadSnapshot(ctx); err != nil {
		return err
	}
	return a.subscribe(ctx)
}

// loadSnapshot merges flagged-unread orders with legacy rows that predate
// the read flag. A record satisfying both queries must appear once.
func (a *Aggregator) loadSnapshot(ctx context.Context) error {
	unread, err := a.repo.ListUnread(ctx)
	if err != nil {
		return err
	}
	legacy, err := a.repo.ListLegacyUnflagged(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range append(unread, legacy...) {
		if _, ok := a.byID[o.ID]; ok {
			continue
		}
		a.byID[o.ID] = project(o)
	}
	a.observeCountLocked()
	return nil
}

func (a *Aggregator) subscribe(ctx context.Context) error {
	handle, err := a.feed.Subscribe(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.handle = handle
	a.syncErr = nil
	a.mu.Unlock()

	go a.consume(handle)
	return nil
}

func (a *Aggregator) consume(handle Handle) {
	for ev := range handle.Events() {
		a.add(ev.Order)
	}
	// Subscription ended. Keep the known notifications; surface the error
	// and wait for a manual retry rather than hot-looping.
	if err := handle.Err(); err != nil {
		a.mu.Lock()
		a.syncErr = err
		a.mu.Unlock()
		a.logger.WithError(err).Error("notification feed lost")
		a.broadcaster.Broadcast("notification.sync_error", err.Error(), "aggregator")
	}
}

func (a *Aggregator) add(o domain.Order) {
	a.mu.Lock()
	if _, ok := a.byID[o.ID]; ok {
		a.mu.Unlock()
		return
	}
	a.byID[o.ID] = project(o)
	alert := a.observeCountLocked()
	count := len(a.byID)
	a.mu.Unlock()

	a.broadcaster.Broadcast("notification.snapshot", a.view(), "aggregator")
	if alert {
		a.broadcaster.Broadcast("notification.alert", count, "aggregator")
	}
}

// observeCountLocked records the current count and reports whether it rose
// relative to the last observation. The very first observation primes the
// baseline without alerting.
func (a *Aggregator) observeCountLocked() bool {
	count := len(a.byID)
	if !a.primed {
		a.primed = true
		a.last = count
		return false
	}
	rose := count > a.last
	a.last = count
	return rose
}

// MarkRead flags one order as handled and drops it from the view. The flag
// only moves false -> true; a second call for the same id is a no-op.
func (a *Aggregator) MarkRead(ctx context.Context, orderID string) error {
	a.mu.Lock()
	_, known := a.byID[orderID]
	a.mu.Unlock()
	if !known {
		return nil
	}

	if err := a.repo.MarkRead(ctx, orderID); err != nil {
		return err
	}

	a.mu.Lock()
	delete(a.byID, orderID)
	a.observeCountLocked()
	a.mu.Unlock()

	a.broadcaster.Broadcast("notification.snapshot", a.view(), "aggregator")
	return nil
}

// MarkAllRead flags every currently-known unread order in one store write,
// then clears the view.
func (a *Aggregator) MarkAllRead(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.byID))
	for id := range a.byID {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	if err := a.repo.MarkAllRead(ctx, ids); err != nil {
		return err
	}

	a.mu.Lock()
	for _, id := range ids {
		delete(a.byID, id)
	}
	a.observeCountLocked()
	a.mu.Unlock()

	a.broadcaster.Broadcast("notification.snapshot", a.view(), "aggregator")
	return nil
}

// Retry re-opens the subscription after a feed error and reconciles the
// view against the store. Known notifications are kept throughout.
func (a *Aggregator) Retry(ctx context.Context) error {
	a.mu.Lock()
	old := a.handle
	a.mu.Unlock()
	if old != nil {
		old.Cancel()
	}

	if err := a.loadSnapshot(ctx); err != nil {
		return err
	}
	return a.subscribe(ctx)
}

// SyncErr returns the pending subscription error, if any.
func (a *Aggregator) SyncErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.syncErr
}

// UnreadCount is the size of the current unread view.
func (a *Aggregator) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}

// Notifications returns the view sorted by recency, newest first.
func (a *Aggregator) Notifications() []domain.Notification {
	return a.view()
}

// Stop cancels the live subscription. Must be called when the admin view
// is torn down.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		handle := a.handle
		a.mu.Unlock()
		if handle != nil {
			handle.Cancel()
		}
	})
}

func (a *Aggregator) view() []domain.Notification {
	a.mu.Lock()
	out := make([]domain.Notification, 0, len(a.byID))
	for _, n := range a.byID {
		out = append(out, n)
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func project(o domain.Order) domain.Notification {
	return domain.Notification{
		OrderID:      o.ID,
		CustomerName: o.Customer.Name,
		TotalCents:   o.TotalCents,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		Read:         false,
	}
}
