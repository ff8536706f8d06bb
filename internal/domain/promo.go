package domain

import "time"

type PromoCode struct {
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discountPercent"`
	ValidFrom       time.Time `json:"validFrom"`
	ValidUntil      time.Time `json:"validUntil"`
}

// Active reports whether the code is inside its validity window at t.
func (p PromoCode) Active(t time.Time) bool {
	if !p.ValidFrom.IsZero() && t.Before(p.ValidFrom) {
		return false
	}
	if !p.ValidUntil.IsZero() && t.After(p.ValidUntil) {
		return false
	}
	return true
}
