package auditlog

import "time"

// StockApplication records one committed stock decrement of an order's item
// for a given target status. Its presence is what makes re-applying the same
// transition a no-op for that item.
type StockApplication struct {
	OrderID      int64     `json:"orderId"`
	TargetStatus string    `json:"targetStatus"`
	MenuItemID   int64     `json:"menuItemId"`
	Quantity     int       `json:"quantity"`
	AppliedAt    time.Time `json:"appliedAt"`
}
