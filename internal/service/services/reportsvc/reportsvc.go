// Package reportsvc computes revenue and popularity reports for the admin dashboard.
// Every store read goes through the resilient retry loop.
package reportsvc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/ireportcache"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/ireportrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/currency"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/corray333/backend-labs/fulfillment/pkg/resilient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultTopItems = 5

// ReportService is the revenue aggregator.
type ReportService struct {
	reports ireportrepo.IReportRepository
	orders  iorderrepo.IOrderRepository
	cache   ireportcache.IReportCache

	location    *time.Location
	currency    currency.Currency
	maxAttempts int
	baseDelay   time.Duration
	warmDays    int
}

type option func(*ReportService)

// MustNewReportService creates a new ReportService.
func MustNewReportService(opts ...option) *ReportService {
	s := &ReportService{
		location:    time.UTC,
		currency:    currency.CurrencyIDR,
		maxAttempts: resilient.DefaultMaxAttempts,
		baseDelay:   resilient.DefaultBaseDelay,
		warmDays:    30,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reports == nil || s.orders == nil {
		panic("reportsvc: report and order repositories are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithReportRepository(repo ireportrepo.IReportRepository) option {
	return func(s *ReportService) {
		s.reports = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *ReportService) {
		s.orders = repo
	}
}

// WithCache enables cache-aside for revenue reports.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCache(cache ireportcache.IReportCache) option {
	return func(s *ReportService) {
		s.cache = cache
	}
}

// WithLocation sets the zone calendar buckets are cut in.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLocation(loc *time.Location) option {
	return func(s *ReportService) {
		if loc != nil {
			s.location = loc
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(c currency.Currency) option {
	return func(s *ReportService) {
		s.currency = c
	}
}

// WithRetry sets the attempt bound and first backoff of store reads.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRetry(maxAttempts int, baseDelay time.Duration) option {
	return func(s *ReportService) {
		s.maxAttempts = maxAttempts
		s.baseDelay = baseDelay
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithWarmDays(days int) option {
	return func(s *ReportService) {
		if days > 0 {
			s.warmDays = days
		}
	}
}

// Location returns the zone buckets are computed in.
func (s *ReportService) Location() *time.Location {
	return s.location
}

func read[T any](ctx context.Context, s *ReportService, query string, op func(ctx context.Context) (T, error)) (T, error) {
	return resilient.Do(ctx, op,
		resilient.WithMaxAttempts(s.maxAttempts),
		resilient.WithBaseDelay(s.baseDelay),
		resilient.WithOnRetry(func(attempt int, err error) {
			metrics.ReadRetries.WithLabelValues(query).Inc()
			slog.Warn("Store read failed, retrying", "query", query, "attempt", attempt, "error", err)
		}),
	)
}

func cacheKey(gen int64, start, end time.Time, bucket report.Bucket, loc *time.Location) string {
	return fmt.Sprintf("revenue:%d:%s:%s:%s:%s",
		gen, start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano), bucket, loc)
}

// revenueKey returns false when there is no cache or its generation is unreadable.
func (s *ReportService) revenueKey(ctx context.Context, start, end time.Time, bucket report.Bucket) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		slog.Warn("Failed to read report cache generation", "error", err)
		return "", false
	}

	return cacheKey(gen, start, end, bucket, s.location), true
}

// InvalidateRevenue drops every cached revenue report. Called whenever an
// order's payment status changes.
func (s *ReportService) InvalidateRevenue(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateRevenue(ctx); err != nil {
		return fmt.Errorf("failed to invalidate revenue reports: %w", err)
	}

	return nil
}

// Aggregate sums paid order totals created within [start, end] per calendar
// day or month, ordered by bucket key.
func (s *ReportService) Aggregate(
	ctx context.Context,
	start, end time.Time,
	bucket report.Bucket,
) (report.RevenueReport, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.Aggregate",
		trace.WithAttributes(attribute.String("report.bucket", string(bucket))),
	)
	defer span.End()

	if _, err := report.ParseBucket(string(bucket)); err != nil {
		return report.RevenueReport{}, err
	}
	if start.IsZero() || end.IsZero() {
		return report.RevenueReport{}, errs.Validationf("start and end are required")
	}
	if end.Before(start) {
		return report.RevenueReport{}, errs.Validationf("end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	key, cacheable := s.revenueKey(ctx, start, end, bucket)
	if cacheable {
		cached, ok, err := s.cache.GetRevenue(ctx, key)
		if err != nil {
			slog.Warn("Failed to read report cache", "key", key, "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("report.cached", true))

			return cached, nil
		}
	}

	r, err := s.compute(ctx, start, end, bucket)
	if err != nil {
		return report.RevenueReport{}, err
	}
	if cacheable {
		s.store(ctx, key, r)
	}

	return r, nil
}

func (s *ReportService) compute(
	ctx context.Context,
	start, end time.Time,
	bucket report.Bucket,
) (report.RevenueReport, error) {
	records, err := read(ctx, s, "paid_orders", func(ctx context.Context) ([]report.RevenueRecord, error) {
		return s.reports.ListPaidOrders(ctx, start, end)
	})
	if err != nil {
		return report.RevenueReport{}, fmt.Errorf("failed to list paid orders: %w", err)
	}

	return GroupRevenue(records, start, end, bucket, s.location, s.currency), nil
}

func (s *ReportService) store(ctx context.Context, key string, r report.RevenueReport) {
	if err := s.cache.SetRevenue(ctx, key, r); err != nil {
		slog.Warn("Failed to write report cache", "key", key, "error", err)
	}
}

// GroupRevenue buckets the records by key in loc and sorts the buckets by key.
func GroupRevenue(
	records []report.RevenueRecord,
	start, end time.Time,
	bucket report.Bucket,
	loc *time.Location,
	cur currency.Currency,
) report.RevenueReport {
	totals := make(map[string]decimal.Decimal)
	sum := decimal.Zero
	for _, rec := range records {
		key := bucket.Key(rec.CreatedAt, loc)
		totals[key] = totals[key].Add(rec.TotalAmount)
		sum = sum.Add(rec.TotalAmount)
	}

	points := make([]report.RevenuePoint, 0, len(totals))
	for key, total := range totals {
		points = append(points, report.RevenuePoint{Key: key, Total: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Key < points[j].Key })

	return report.RevenueReport{
		Start:    start,
		End:      end,
		Bucket:   bucket,
		Currency: cur,
		Points:   points,
		Total:    sum,
	}
}

// TopItems ranks menu items by quantity sold over all orders regardless of date.
// Ties go to the title, then the menu item id. n <= 0 means DefaultTopItems.
func (s *ReportService) TopItems(ctx context.Context, n int) ([]report.ItemQuantity, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.TopItems")
	defer span.End()

	rows, err := read(ctx, s, "item_quantities", s.reports.ListItemQuantities)
	if err != nil {
		return nil, fmt.Errorf("failed to list item quantities: %w", err)
	}

	return RankItems(rows, n), nil
}

// RankItems merges rows per menu item and returns at most n of them.
func RankItems(rows []report.ItemQuantity, n int) []report.ItemQuantity {
	if n <= 0 {
		n = DefaultTopItems
	}

	merged := make(map[int64]report.ItemQuantity)
	for _, row := range rows {
		item, ok := merged[row.MenuItemID]
		if !ok {
			item = report.ItemQuantity{MenuItemID: row.MenuItemID}
		}
		if item.Title == "" {
			item.Title = row.Title
		}
		item.Quantity += row.Quantity
		merged[row.MenuItemID] = item
	}

	ranked := make([]report.ItemQuantity, 0, len(merged))
	for _, item := range merged {
		ranked = append(ranked, item)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.MenuItemID < b.MenuItemID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// Overview reads the dashboard counters concurrently.
func (s *ReportService) Overview(ctx context.Context) (report.Overview, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.Overview")
	defer span.End()

	var overview report.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := read(gctx, s, "items_sold", s.reports.SumItemsSold)
		if err != nil {
			return fmt.Errorf("failed to sum items sold: %w", err)
		}
		overview.ItemsSold = n

		return nil
	})
	g.Go(func() error {
		n, err := read(gctx, s, "customers", s.reports.CountCustomers)
		if err != nil {
			return fmt.Errorf("failed to count customers: %w", err)
		}
		overview.Customers = n

		return nil
	})
	g.Go(func() error {
		n, err := read(gctx, s, "pending_orders", func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, &order.QueryOrdersModel{Statuses: []order.Status{order.StatusPending}})
		})
		if err != nil {
			return fmt.Errorf("failed to count pending orders: %w", err)
		}
		overview.PendingOrders = n

		return nil
	})

	if err := g.Wait(); err != nil {
		return report.Overview{}, err
	}

	return overview, nil
}

// DashboardRange is the default dashboard window ending at now: the last
// warmDays calendar days in the report location, today included.
func (s *ReportService) DashboardRange(now time.Time) (time.Time, time.Time) {
	local := now.In(s.location)
	startOfToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	start := startOfToday.AddDate(0, 0, -(s.warmDays - 1))
	end := startOfToday.AddDate(0, 0, 1).Add(-time.Nanosecond)

	return start, end
}

// WarmDashboard recomputes the default dashboard report and overwrites its cache entry.
func (s *ReportService) WarmDashboard(ctx context.Context, now time.Time) (report.RevenueReport, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ReportService.WarmDashboard")
	defer span.End()

	start, end := s.DashboardRange(now)
	key, cacheable := s.revenueKey(ctx, start, end, report.BucketDay)
	r, err := s.compute(ctx, start, end, report.BucketDay)
	if err != nil {
		return report.RevenueReport{}, err
	}
	if cacheable {
		s.store(ctx, key, r)
	}

	return r, nil
}
