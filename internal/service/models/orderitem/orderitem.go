package orderitem

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item within an order.
// Price is a snapshot of the menu price at order time.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	MenuItemID int64           `json:"menuItemId"`
	Title      string          `json:"title,omitempty"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Subtotal returns price * quantity.
func (oi OrderItem) Subtotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
