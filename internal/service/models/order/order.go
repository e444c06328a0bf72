package order

import (
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// Order represents a customer's order tracked through fulfillment and payment.
type Order struct {
	ID                int64                 `json:"id"`
	UserID            string                `json:"userId"`
	Status            Status                `json:"status"`
	PaymentStatus     PaymentStatus         `json:"paymentStatus"`
	PaymentMethod     string                `json:"paymentMethod"`
	TotalAmount       decimal.Decimal       `json:"totalAmount"`
	ProofOfPaymentRef string                `json:"proofOfPaymentRef,omitempty"`
	Revision          int64                 `json:"revision"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	OrderItems        []orderitem.OrderItem `json:"orderItems"`
}

// ComputedTotal sums price * quantity over the order items.
func (o Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.Subtotal())
	}

	return total
}

// TotalMatches reports whether TotalAmount equals the summed line items.
func (o Order) TotalMatches() bool {
	return o.ComputedTotal().Equal(o.TotalAmount)
}

// PaymentUpdate carries the fields written when a customer submits a payment.
type PaymentUpdate struct {
	Method            string
	Status            PaymentStatus
	ProofOfPaymentRef string
}
