package ireportcache

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
)

// IReportCache stores computed revenue reports by key.
type IReportCache interface {
	// GetRevenue returns false when the key is absent or expired.
	GetRevenue(ctx context.Context, key string) (report.RevenueReport, bool, error)
	SetRevenue(ctx context.Context, key string, r report.RevenueReport) error

	// Generation returns the current revenue generation. Reports cached
	// under an older generation are never read again.
	Generation(ctx context.Context) (int64, error)
	// InvalidateRevenue advances the generation.
	InvalidateRevenue(ctx context.Context) error
}
