package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
)

// OrderItemRepository implements iorderitemrepo.IOrderItemRepository.
type OrderItemRepository struct {
	s *Store
}

func (r *OrderItemRepository) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var orderID int64
	if filter != nil && len(filter.OrderIds) == 1 {
		orderID = filter.OrderIds[0]
	}
	if err := r.s.enter(OpQueryOrderItems, orderID); err != nil {
		return nil, err
	}

	var result []orderitem.OrderItem
	for _, item := range r.s.orderItems {
		if filter != nil {
			if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, item.ID) {
				continue
			}
			if len(filter.OrderIds) > 0 && !slices.Contains(filter.OrderIds, item.OrderID) {
				continue
			}
			if len(filter.MenuItemIds) > 0 && !slices.Contains(filter.MenuItemIds, item.MenuItemID) {
				continue
			}
		}
		if m, ok := r.s.menuItems[item.MenuItemID]; ok {
			item.Title = m.Title
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}
