package lifecyclesvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"go.opentelemetry.io/otel"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// OrderPage is one page of orders matching a filter, with the total match count.
type OrderPage struct {
	Orders []order.Order `json:"orders"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListOrders returns the orders matching filter with their items.
// A zero limit means DefaultPageSize; limits above MaxPageSize are clamped.
func (s *LifecycleService) ListOrders(ctx context.Context, filter order.QueryOrdersModel) (OrderPage, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.ListOrders")
	defer span.End()

	for _, st := range filter.Statuses {
		if _, err := order.ParseStatus(string(st)); err != nil {
			return OrderPage{}, err
		}
	}
	for _, st := range filter.PaymentStatuses {
		if _, err := order.ParsePaymentStatus(string(st)); err != nil {
			return OrderPage{}, err
		}
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return OrderPage{}, errs.Validationf("limit and offset must not be negative")
	}
	if !filter.CreatedFrom.IsZero() && !filter.CreatedTo.IsZero() && filter.CreatedTo.Before(filter.CreatedFrom) {
		return OrderPage{}, errs.Validationf("createdTo is before createdFrom")
	}
	switch {
	case filter.Limit == 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}

	orders, err := s.orders.Query(ctx, &filter)
	if err != nil {
		return OrderPage{}, fmt.Errorf("failed to query orders: %w", err)
	}
	total, err := s.orders.Count(ctx, &filter)
	if err != nil {
		return OrderPage{}, fmt.Errorf("failed to count orders: %w", err)
	}

	page := OrderPage{
		Orders: make([]order.Order, 0, len(orders)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if len(orders) == 0 {
		return page, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.orderItems.Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: ids})
	if err != nil {
		return OrderPage{}, fmt.Errorf("failed to query order items: %w", err)
	}

	byOrder := make(map[int64][]orderitem.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for _, o := range orders {
		o.OrderItems = byOrder[o.ID]
		if o.OrderItems == nil {
			o.OrderItems = []orderitem.OrderItem{}
		}
		page.Orders = append(page.Orders, o)
	}

	return page, nil
}
