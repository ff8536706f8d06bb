package domain

// StockLevel is the authoritative available quantity for a product size.
type StockLevel struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Available int    `json:"available"`
}

// Stock verdict reasons. Closed set.
const (
	StockReasonNotFound          = "NotFound"
	StockReasonInsufficientStock = "InsufficientStock"
)

// StockVerdict is the per-line result of validating a cart against live
// inventory. Reason is empty when OK.
type StockVerdict struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	OK        bool   `json:"ok"`
	Available int    `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
