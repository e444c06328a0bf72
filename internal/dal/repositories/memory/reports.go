package memory

import (
	"context"
	"sort"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
)

// ReportRepository implements ireportrepo.IReportRepository.
type ReportRepository struct {
	s *Store
}

func (r *ReportRepository) ListPaidOrders(_ context.Context, start, end time.Time) ([]report.RevenueRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpListPaidOrders, 0); err != nil {
		return nil, err
	}

	var result []report.RevenueRecord
	for _, o := range r.s.orders {
		if o.PaymentStatus != order.PaymentStatusPaid {
			continue
		}
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		result = append(result, report.RevenueRecord{
			OrderID:     o.ID,
			CreatedAt:   o.CreatedAt,
			TotalAmount: o.TotalAmount,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].OrderID < result[j].OrderID
	})

	return result, nil
}

// ListItemQuantities returns one row per order item, unaggregated.
func (r *ReportRepository) ListItemQuantities(_ context.Context) ([]report.ItemQuantity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpListItemQuantities, 0); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(r.s.orderItems))
	for id := range r.s.orderItems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]report.ItemQuantity, 0, len(ids))
	for _, id := range ids {
		item := r.s.orderItems[id]
		result = append(result, report.ItemQuantity{
			MenuItemID: item.MenuItemID,
			Title:      r.s.menuItems[item.MenuItemID].Title,
			Quantity:   int64(item.Quantity),
		})
	}

	return result, nil
}

func (r *ReportRepository) SumItemsSold(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpSumItemsSold, 0); err != nil {
		return 0, err
	}

	var sum int64
	for _, item := range r.s.orderItems {
		sum += int64(item.Quantity)
	}

	return sum, nil
}

func (r *ReportRepository) CountCustomers(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpCountCustomers, 0); err != nil {
		return 0, err
	}

	users := make(map[string]struct{})
	for _, o := range r.s.orders {
		users[o.UserID] = struct{}{}
	}

	return int64(len(users)), nil
}
