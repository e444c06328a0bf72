package iauditrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
)

// IAuditRepository is interface for the stock application audit trail.
type IAuditRepository interface {
	ListStockApplications(ctx context.Context, orderID int64) ([]auditlog.StockApplication, error)
}
