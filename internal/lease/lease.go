// Package lease serializes work on a key, such as all transitions of one order.
package lease

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
)

// ErrLeaseTimeout is returned when the lease could not be obtained in time.
var ErrLeaseTimeout = fmt.Errorf("%w: lease is held by another caller", errs.ErrConflict)

// Lease is a held lock. Release must be called on every exit path.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out leases by key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// acquireErr separates the caller giving up from the wait bound running out.
func acquireErr(parent, waitCtx context.Context, key string) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("acquire lease %s: %w", key, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrLeaseTimeout, key, waitCtx.Err())
}

// OrderKey is the lease key of an order.
func OrderKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}
