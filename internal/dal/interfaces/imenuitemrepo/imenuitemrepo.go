package imenuitemrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
)

// IMenuItemRepository is an interface for menu item repository.
type IMenuItemRepository interface {
	Get(ctx context.Context, id int64) (menuitem.MenuItem, error)

	// ApplyDecrement claims the (key, menu item) marker and lowers stock by the
	// quantity, clamped at zero, as one atomic store operation. When the marker
	// already exists nothing is written and Applied is false.
	ApplyDecrement(
		ctx context.Context,
		key menuitem.DecrementKey,
		decrement menuitem.Decrement,
	) (menuitem.DecrementOutcome, error)
}
