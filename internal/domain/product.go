package domain

import "time"

type Product struct {
	ID                 string    `json:"id"`
	SKU                string    `json:"sku"`
	Name               string    `json:"name"`
	PriceCents         int64     `json:"priceCents"`
	OriginalPriceCents int64     `json:"originalPriceCents"`
	Currency           string    `json:"currency"`
	Sizes              []string  `json:"sizes,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}
