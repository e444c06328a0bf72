package inventorysvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/imenuitemrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ledger applies stock decrements for order line items.
// Every decrement is a single store-level statement that clamps at zero and
// is recorded under its DecrementKey, so re-applying a key is a no-op per item.
type Ledger struct {
	menuItems imenuitemrepo.IMenuItemRepository
}

type option func(*Ledger)

// MustNewLedger creates a new Ledger.
func MustNewLedger(opts ...option) *Ledger {
	l := &Ledger{}
	for _, opt := range opts {
		opt(l)
	}
	if l.menuItems == nil {
		panic("inventorysvc: menu item repository is required")
	}

	return l
}

// WithMenuItemRepository sets the menu item repository for the Ledger.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMenuItemRepository(repo imenuitemrepo.IMenuItemRepository) option {
	return func(l *Ledger) {
		l.menuItems = repo
	}
}

// ItemResult is the outcome for one menu item.
type ItemResult struct {
	MenuItemID int64  `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Applied    bool   `json:"applied"`
	Stock      int    `json:"stock"`
	Error      string `json:"error,omitempty"`
}

// Report lists the per-item outcomes of one ApplyDecrement call in menu item order.
type Report struct {
	Key   string       `json:"key"`
	Items []ItemResult `json:"items"`
}

// Applied counts items decremented by this call.
func (r Report) Applied() int {
	n := 0
	for _, item := range r.Items {
		if item.Applied {
			n++
		}
	}

	return n
}

// Merge sums quantities per menu item and returns them ordered by menu item id.
func Merge(items []menuitem.Decrement) ([]menuitem.Decrement, error) {
	totals := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errs.Validationf("menu item %d: quantity must be positive, got %d", item.MenuItemID, item.Quantity)
		}
		totals[item.MenuItemID] += item.Quantity
	}

	merged := make([]menuitem.Decrement, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, menuitem.Decrement{MenuItemID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].MenuItemID < merged[j].MenuItemID })

	return merged, nil
}

func step(id int64) string {
	return fmt.Sprintf("menu_item:%d", id)
}

// ApplyDecrement lowers stock for every item under key. A failing item does not
// stop the others; when any item fails the report is returned together with a
// *errs.PartialApplicationError naming committed and failed items.
func (l *Ledger) ApplyDecrement(
	ctx context.Context,
	key menuitem.DecrementKey,
	items []menuitem.Decrement,
) (Report, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Ledger.ApplyDecrement",
		trace.WithAttributes(
			attribute.Int64("order.id", key.OrderID),
			attribute.String("order.target_status", key.TargetStatus),
		),
	)
	defer span.End()

	merged, err := Merge(items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return Report{}, err
	}

	report := Report{Key: key.String(), Items: make([]ItemResult, 0, len(merged))}
	var committed, failed []string
	var failures []error

	for _, d := range merged {
		result := ItemResult{MenuItemID: d.MenuItemID, Quantity: d.Quantity}

		outcome, err := l.menuItems.ApplyDecrement(ctx, key, d)
		if err != nil {
			result.Error = err.Error()
			failed = append(failed, step(d.MenuItemID))
			failures = append(failures, fmt.Errorf("menu item %d: %w", d.MenuItemID, err))
			metrics.StockDecrements.WithLabelValues("failed").Inc()
			slog.Error("Failed to decrement stock",
				"key", report.Key,
				"menu_item_id", d.MenuItemID,
				"quantity", d.Quantity,
				"error", err,
			)
		} else {
			result.Applied = outcome.Applied
			result.Stock = outcome.Stock
			committed = append(committed, step(d.MenuItemID))
			if outcome.Applied {
				metrics.StockDecrements.WithLabelValues("applied").Inc()
			} else {
				metrics.StockDecrements.WithLabelValues("skipped").Inc()
			}
		}

		report.Items = append(report.Items, result)
	}

	if len(failed) > 0 {
		partial := &errs.PartialApplicationError{
			Operation: "stock decrement " + report.Key,
			Committed: committed,
			Failed:    failed,
			Err:       errors.Join(failures...),
		}
		span.RecordError(partial)
		span.SetStatus(codes.Error, "partial stock decrement")

		return report, partial
	}

	slog.Debug("Stock decremented", "key", report.Key, "items", len(report.Items), "applied", report.Applied())

	return report, nil
}
