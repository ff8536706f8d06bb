package stock

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// Validator checks cart lines against live inventory. It never mutates the
// cart and never trims a requested quantity; callers decide how to react.
type Validator struct {
	repo stockRepo
}

type stockRepo interface {
	GetLevel(ctx context.Context, productID, size string) (*domain.StockLevel, error)
}

func NewValidator(repo stockRepo) *Validator {
	return &Validator{repo: repo}
}

// Validate fetches the current level for every line and returns one verdict
// per line. It runs twice in a normal checkout: once gating the review step
// and once immediately before commit, because stock can move in between.
func (v *Validator) Validate(ctx context.Context, cart *domain.Cart) ([]domain.StockVerdict, error) {
	verdicts := make([]domain.StockVerdict, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		verdict := domain.StockVerdict{ProductID: line.ProductID, Size: line.Size}

		level, err := v.repo.GetLevel(ctx, line.ProductID, line.Size)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			verdict.Reason = domain.StockReasonNotFound
		case err != nil:
			return nil, err
		case level.Available < line.Quantity:
			verdict.Available = level.Available
			verdict.Reason = domain.StockReasonInsufficientStock
		default:
			verdict.OK = true
			verdict.Available = level.Available
		}

		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}

// AllOK reports whether every verdict passed.
func AllOK(verdicts []domain.StockVerdict) bool {
	for _, v := range verdicts {
		if !v.OK {
			return false
		}
	}
	return true
}
