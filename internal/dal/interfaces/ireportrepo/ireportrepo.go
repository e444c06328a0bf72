package ireportrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
)

// IReportRepository is an interface for the read-only reporting queries.
type IReportRepository interface {
	// ListPaidOrders returns paid orders created within [start, end], oldest first.
	ListPaidOrders(ctx context.Context, start, end time.Time) ([]report.RevenueRecord, error)

	// ListItemQuantities returns sold quantities per menu item over all orders.
	// Rows for the same menu item may repeat; callers merge them.
	ListItemQuantities(ctx context.Context) ([]report.ItemQuantity, error)

	SumItemsSold(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
}
