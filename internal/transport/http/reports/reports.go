package reports

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
)

type service interface {
	Aggregate(ctx context.Context, start, end time.Time, bucket report.Bucket) (report.RevenueReport, error)
	TopItems(ctx context.Context, n int) ([]report.ItemQuantity, error)
	Overview(ctx context.Context) (report.Overview, error)
	DashboardRange(now time.Time) (time.Time, time.Time)
	Location() *time.Location
}

type topItemsResponse struct {
	Items []report.ItemQuantity `json:"items"`
}

// parseRange reads start and end as calendar dates in loc. End covers its whole day.
// When both are absent the dashboard range is used.
func parseRange(r *http.Request, service service) (time.Time, time.Time, error) {
	query := r.URL.Query()
	rawStart, rawEnd := query.Get("start"), query.Get("end")
	if rawStart == "" && rawEnd == "" {
		start, end := service.DashboardRange(time.Now())
		return start, end, nil
	}

	loc := service.Location()
	start, err := time.ParseInLocation(time.DateOnly, rawStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errs.Validationf("invalid start %q, want YYYY-MM-DD", rawStart)
	}
	end, err := time.ParseInLocation(time.DateOnly, rawEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errs.Validationf("invalid end %q, want YYYY-MM-DD", rawEnd)
	}

	return start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// Revenue handles GET /api/reports/revenue?start=&end=&bucket=.
func Revenue(w http.ResponseWriter, r *http.Request, service service) {
	start, end, err := parseRange(r, service)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	bucket := report.BucketDay
	if raw := r.URL.Query().Get("bucket"); raw != "" {
		bucket = report.Bucket(raw)
	}

	result, err := service.Aggregate(r.Context(), start, end, bucket)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}

// TopItems handles GET /api/reports/top-items?limit=.
func TopItems(w http.ResponseWriter, r *http.Request, service service) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(w, r, errs.Validationf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	items, err := service.TopItems(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, topItemsResponse{Items: items})
}

// Overview handles GET /api/reports/overview.
func Overview(w http.ResponseWriter, r *http.Request, service service) {
	overview, err := service.Overview(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, overview)
}
