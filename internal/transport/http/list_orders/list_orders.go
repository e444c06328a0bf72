package listorders

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
)

type service interface {
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) (lifecyclesvc.OrderPage, error)
}

// splitList splits a comma-separated query value, dropping empty parts.
func splitList(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	return parts
}

func parseIntSlice(name, s string) ([]int64, error) {
	parts := splitList(s)
	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errs.Validationf("invalid %s value %q", name, part)
		}
		result = append(result, v)
	}

	return result, nil
}

func parseInt(name, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Validationf("invalid %s %q", name, s)
	}

	return v, nil
}

func parseTime(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errs.Validationf("invalid %s %q, want RFC 3339", name, s)
	}

	return t, nil
}

func parseFilter(r *http.Request) (order.QueryOrdersModel, error) {
	query := r.URL.Query()

	var filter order.QueryOrdersModel
	var err error
	if filter.Ids, err = parseIntSlice("ids", query.Get("ids")); err != nil {
		return filter, err
	}
	filter.UserIds = splitList(query.Get("userIds"))
	for _, s := range splitList(query.Get("statuses")) {
		filter.Statuses = append(filter.Statuses, order.Status(s))
	}
	for _, s := range splitList(query.Get("paymentStatuses")) {
		filter.PaymentStatuses = append(filter.PaymentStatuses, order.PaymentStatus(s))
	}
	if filter.CreatedFrom, err = parseTime("createdFrom", query.Get("createdFrom")); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = parseTime("createdTo", query.Get("createdTo")); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseInt("limit", query.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseInt("offset", query.Get("offset")); err != nil {
		return filter, err
	}

	return filter, nil
}

// ListOrders handles GET /api/orders.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	page, err := service.ListOrders(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, page)
}
