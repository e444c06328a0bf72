package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
)

// IOrderRepository is an interface for order repository.
// Update methods are compare-and-set on the order revision and return
// errs.ErrConflict when the revision moved.
type IOrderRepository interface {
	Get(ctx context.Context, id int64) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status, expectedRevision int64) error
	UpdatePaymentStatus(
		ctx context.Context,
		id int64,
		status order.PaymentStatus,
		expectedRevision int64,
	) error
	UpdatePayment(
		ctx context.Context,
		id int64,
		update order.PaymentUpdate,
		expectedRevision int64,
	) error
}
