package order

import (
	"fmt"
	"slices"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrInvalidStatus        = fmt.Errorf("%w: invalid order status", errs.ErrValidation)
	ErrInvalidPaymentStatus = fmt.Errorf("%w: invalid payment status", errs.ErrValidation)
	ErrTransitionNotAllowed = fmt.Errorf("%w: transition not allowed", errs.ErrValidation)
)

func (s Status) String() string {
	return string(s)
}

// Label returns the customer-facing name of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu"
	case StatusProcessing:
		return "Diproses"
	case StatusCompleted:
		return "Selesai"
	case StatusCancelled:
		return "Dibatalkan"
	default:
		return string(s)
	}
}

// DecrementsStock reports whether reaching this status commits the order's items against stock.
func (s Status) DecrementsStock() bool {
	return s == StatusProcessing || s == StatusCompleted
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// strictTransitions lists the legal successors of each status.
// Completed and cancelled orders are terminal.
var strictTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether an order in status from may move to status to.
// A request for the current status is always allowed and treated as a no-op by callers.
// When strict is false every move between known statuses is allowed.
func CanTransition(from, to Status, strict bool) bool {
	if from == to {
		return true
	}
	if !strict {
		return true
	}

	return slices.Contains(strictTransitions[from], to)
}

// PaymentStatus is the payment state of an order, tracked independently of Status.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Label() string {
	switch s {
	case PaymentStatusPending:
		return "Menunggu"
	case PaymentStatusPaid:
		return "Dibayar"
	case PaymentStatusFailed:
		return "Gagal"
	default:
		return string(s)
	}
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
	}
}
