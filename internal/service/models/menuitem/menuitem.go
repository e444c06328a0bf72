package menuitem

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MenuItem represents a sellable item with its remaining stock.
type MenuItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"isActive"`
}

// DecrementKey identifies one application of an order's items against stock.
// Each (key, menu item) pair is decremented at most once.
type DecrementKey struct {
	OrderID      int64
	TargetStatus string
}

func (k DecrementKey) String() string {
	return fmt.Sprintf("order:%d:%s", k.OrderID, k.TargetStatus)
}

// Decrement is a requested stock reduction for one menu item.
type Decrement struct {
	MenuItemID int64
	Quantity   int
}

// DecrementOutcome is the store's answer to a single decrement.
// Applied is false when the marker for the pair already existed.
type DecrementOutcome struct {
	Applied bool
	Stock   int
}
