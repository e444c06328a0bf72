package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
)

// OrderRepository implements iorderrepo.IOrderRepository.
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Get(_ context.Context, id int64) (order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpGetOrder, id); err != nil {
		return order.Order{}, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return order.Order{}, notFound("order", id)
	}

	return o, nil
}

func matchOrder(o order.Order, f *order.QueryOrdersModel) bool {
	if f == nil {
		return true
	}
	if len(f.Ids) > 0 && !slices.Contains(f.Ids, o.ID) {
		return false
	}
	if len(f.UserIds) > 0 && !slices.Contains(f.UserIds, o.UserID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if len(f.PaymentStatuses) > 0 && !slices.Contains(f.PaymentStatuses, o.PaymentStatus) {
		return false
	}
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && o.CreatedAt.After(f.CreatedTo) {
		return false
	}

	return true
}

func (r *OrderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpQueryOrders, 0); err != nil {
		return nil, err
	}

	var result []order.Order
	for _, o := range r.s.orders {
		if matchOrder(o, filter) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []order.Order{}, nil
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}

	return result, nil
}

func (r *OrderRepository) Count(_ context.Context, filter *order.QueryOrdersModel) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpCountOrders, 0); err != nil {
		return 0, err
	}

	var n int64
	for _, o := range r.s.orders {
		if matchOrder(o, filter) {
			n++
		}
	}

	return n, nil
}

// update applies fn to the order when its revision still equals expectedRevision.
// Callers hold r.s.mu.
func (r *OrderRepository) update(op Op, id, expectedRevision int64, fn func(o *order.Order)) error {
	if err := r.s.enter(op, id); err != nil {
		return err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return notFound("order", id)
	}
	if o.Revision != expectedRevision {
		return fmt.Errorf("%w: order %d revision %d, expected %d", errs.ErrConflict, id, o.Revision, expectedRevision)
	}

	fn(&o)
	o.Revision++
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o

	return nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id int64, status order.Status, expectedRevision int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.update(OpUpdateStatus, id, expectedRevision, func(o *order.Order) {
		o.Status = status
	})
}

func (r *OrderRepository) UpdatePaymentStatus(
	_ context.Context,
	id int64,
	status order.PaymentStatus,
	expectedRevision int64,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.update(OpUpdatePaymentStatus, id, expectedRevision, func(o *order.Order) {
		o.PaymentStatus = status
	})
}

func (r *OrderRepository) UpdatePayment(
	_ context.Context,
	id int64,
	update order.PaymentUpdate,
	expectedRevision int64,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.update(OpUpdatePayment, id, expectedRevision, func(o *order.Order) {
		o.PaymentMethod = update.Method
		o.PaymentStatus = update.Status
		o.ProofOfPaymentRef = update.ProofOfPaymentRef
	})
}
