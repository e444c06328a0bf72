package report

import (
	"fmt"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/currency"
	"github.com/shopspring/decimal"
)

// Bucket is the time grouping used by revenue reports.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketMonth Bucket = "month"
)

var ErrInvalidBucket = fmt.Errorf("%w: invalid bucket", errs.ErrValidation)

func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketDay, BucketMonth:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
}

// Layout returns the time layout of the bucket key. Keys sort lexicographically in calendar order.
func (b Bucket) Layout() string {
	if b == BucketMonth {
		return "2006-01"
	}

	return "2006-01-02"
}

// Key returns the bucket key of t in loc.
func (b Bucket) Key(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(b.Layout())
}

// RevenueRecord is the slice of a paid order the aggregator needs.
type RevenueRecord struct {
	OrderID     int64
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

// RevenuePoint is the summed revenue of one bucket.
type RevenuePoint struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
}

// RevenueReport groups paid order totals over [Start, End].
type RevenueReport struct {
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Bucket   Bucket            `json:"bucket"`
	Currency currency.Currency `json:"currency"`
	Points   []RevenuePoint    `json:"points"`
	Total    decimal.Decimal   `json:"total"`
}

// ItemQuantity is the quantity sold of one menu item.
type ItemQuantity struct {
	MenuItemID int64  `json:"menuItemId"`
	Title      string `json:"title"`
	Quantity   int64  `json:"quantity"`
}

// Overview holds the dashboard counters.
type Overview struct {
	ItemsSold     int64 `json:"itemsSold"`
	Customers     int64 `json:"customers"`
	PendingOrders int64 `json:"pendingOrders"`
}
