package domain

import "time"

type Cart struct {
	ID              string     `json:"id"`
	IdentityID      string     `json:"-"`
	Lines           []LineItem `json:"lineItems,omitempty"`
	PromoCode       string     `json:"promoCode,omitempty"`
	DiscountPercent int        `json:"discountPercent"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// LineItem is a (product, size) pair with a quantity and a price snapshot
// taken at the time the line was added. Lines are unique by ProductID+Size.
type LineItem struct {
	ProductID          string `json:"productId"`
	Size               string `json:"size"`
	Quantity           int    `json:"quantity"`
	UnitPriceCents     int64  `json:"unitPriceCents"`
	OriginalPriceCents int64  `json:"originalPriceCents"`
}

// SubtotalCents is the sum of unit price times quantity over all lines.
func (c *Cart) SubtotalCents() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.UnitPriceCents * int64(l.Quantity)
	}
	return sum
}

// FindLine returns the index of the line matching productID+size, or -1.
func (c *Cart) FindLine(productID, size string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID && l.Size == size {
			return i
		}
	}
	return -1
}
