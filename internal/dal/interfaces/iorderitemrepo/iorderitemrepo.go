package iorderitemrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
)

// IOrderItemRepository is an interface for order item repository.
type IOrderItemRepository interface {
	Query(
		ctx context.Context,
		filter *orderitem.QueryOrderItemsModel,
	) ([]orderitem.OrderItem, error)
}
