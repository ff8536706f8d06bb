package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/cache"
	"storefront/internal/domain"
)

// Service owns cart mutations: line management, promo state and the
// per-identity snapshot that survives the session.
type Service struct {
	repo        cartRepo
	productRepo productRepo
	stockRepo   stockRepo
	promoRepo   promoRepo
	snapshots   cache.CartCache
	notifier    ChangeNotifier
	logger      *logrus.Logger
}

type cartRepo interface {
	GetOrCreateByIdentity(ctx context.Context, identityID string) (*domain.Cart, error)
	GetByIdentity(ctx context.Context, identityID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, cartID string, line domain.LineItem) error
	SetLineQuantity(ctx context.Context, cartID, productID, size string, quantity int) error
	RemoveLine(ctx context.Context, cartID, productID, size string) error
	SetPromo(ctx context.Context, cartID, code string, discountPercent int) error
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type stockRepo interface {
	GetLevel(ctx context.Context, productID, size string) (*domain.StockLevel, error)
}

type promoRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}

// ChangeNotifier receives a ping after every cart mutation so independent
// consumers (the cart badge) can refresh without being wired to the store.
type ChangeNotifier interface {
	CartChanged(identityID string, itemCount int)
}

// NopNotifier discards change events.
type NopNotifier struct{}

func (NopNotifier) CartChanged(string, int) {}

func New(repo cartRepo, productRepo productRepo, stockRepo stockRepo, promoRepo promoRepo, snapshots cache.CartCache, notifier ChangeNotifier, logger *logrus.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		promoRepo:   promoRepo,
		snapshots:   snapshots,
		notifier:    notifier,
		logger:      logger,
	}
}

// Get restores the identity's cart, preferring the snapshot cache.
func (s *Service) Get(ctx context.Context, identityID string) (*domain.Cart, error) {
	if s.snapshots != nil {
		if cart, err := s.snapshots.Get(ctx, identityID); err == nil {
			// Snapshots do not serialize the identity; the lookup key is it.
			cart.IdentityID = identityID
			return cart, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("cart snapshot read failed, falling back to store")
		}
	}
	cart, err := s.repo.GetOrCreateByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(ctx, identityID, cart)
	return cart, nil
}

// AddItem appends a line or merges into an existing productID+size line.
// The add is all-or-nothing: if the merged quantity exceeds the live stock
// level the cart is left untouched and ErrOutOfStock is returned.
func (s *Service) AddItem(ctx context.Context, identityID, productID, size string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &domain.ValidationError{Fields: []string{"quantity"}}
	}
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(size) == "" {
		return nil, &domain.ValidationError{Fields: []string{"productId", "size"}}
	}

	cart, err := s.repo.GetOrCreateByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, err
	}

	level, err := s.stockRepo.GetLevel(ctx, productID, size)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}

	newQty := quantity
	if idx := cart.FindLine(productID, size); idx >= 0 {
		newQty += cart.Lines[idx].Quantity
	}
	if newQty > level.Available {
		return nil, domain.ErrOutOfStock
	}

	line := domain.LineItem{
		ProductID:          productID,
		Size:               size,
		Quantity:           newQty,
		UnitPriceCents:     product.PriceCents,
		OriginalPriceCents: product.OriginalPriceCents,
	}
	if err := s.repo.UpsertLine(ctx, cart.ID, line); err != nil {
		return nil, err
	}

	return s.afterMutation(ctx, identityID)
}

// UpdateQuantity sets a line quantity, clamped to the live stock level.
// Quantities below one are rejected, not treated as removal.
func (s *Service) UpdateQuantity(ctx context.Context, identityID, productID, size string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &domain.ValidationError{Fields: []string{"quantity"}}
	}

	cart, err := s.repo.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if cart.FindLine(productID, size) < 0 {
		return nil, domain.ErrNotFound
	}

	level, err := s.stockRepo.GetLevel(ctx, productID, size)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}
	if quantity > level.Available {
		quantity = level.Available
	}
	if quantity < 1 {
		return nil, domain.ErrOutOfStock
	}

	if err := s.repo.SetLineQuantity(ctx, cart.ID, productID, size, quantity); err != nil {
		return nil, err
	}

	return s.afterMutation(ctx, identityID)
}

// RemoveItem drops a line; removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, identityID, productID, size string) (*domain.Cart, error) {
	cart, err := s.repo.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLine(ctx, cart.ID, productID, size); err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, identityID)
}

// PromoResult is the outcome of a promo code application.
type PromoResult struct {
	Success         bool   `json:"success"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	Message         string `json:"message,omitempty"`
}

// ApplyPromoCode looks the code up and, when valid, attaches it to the
// cart. An unknown or expired code leaves the cart unchanged.
func (s *Service) ApplyPromoCode(ctx context.Context, identityID, code string) (PromoResult, error) {
	cart, err := s.repo.GetByIdentity(ctx, identityID)
	if err != nil {
		return PromoResult{}, err
	}

	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PromoResult{Success: false, Message: "invalid promo code"}, nil
		}
		return PromoResult{}, err
	}
	if !promo.Active(time.Now()) {
		return PromoResult{Success: false, Message: "promo code expired"}, nil
	}

	if err := s.repo.SetPromo(ctx, cart.ID, promo.Code, promo.DiscountPercent); err != nil {
		return PromoResult{}, err
	}
	if _, err := s.afterMutation(ctx, identityID); err != nil {
		return PromoResult{}, err
	}
	return PromoResult{Success: true, DiscountPercent: promo.DiscountPercent}, nil
}

// Clear empties the cart and its snapshot. Called on successful order
// commit and on explicit user action.
func (s *Service) Clear(ctx context.Context, identityID string) error {
	cart, err := s.repo.GetByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return err
	}
	if _, err := s.afterMutation(ctx, identityID); err != nil {
		return err
	}
	return nil
}

func (s *Service) afterMutation(ctx context.Context, identityID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(ctx, identityID, cart)

	count := 0
	for _, l := range cart.Lines {
		count += l.Quantity
	}
	s.notifier.CartChanged(identityID, count)
	return cart, nil
}

func (s *Service) writeSnapshot(ctx context.Context, identityID string, cart *domain.Cart) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Set(ctx, identityID, cart); err != nil {
		s.logger.WithError(err).Warn("cart snapshot write failed")
	}
}
