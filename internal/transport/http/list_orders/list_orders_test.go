package listorders

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    order.QueryOrdersModel
		wantErr bool
	}{
		{name: "empty", query: ""},
		{
			name:  "lists",
			query: "ids=1,2,,3&userIds=user-1,%20user-2&statuses=pending,processing&paymentStatuses=paid",
			want: order.QueryOrdersModel{
				Ids:             []int64{1, 2, 3},
				UserIds:         []string{"user-1", "user-2"},
				Statuses:        []order.Status{order.StatusPending, order.StatusProcessing},
				PaymentStatuses: []order.PaymentStatus{order.PaymentStatusPaid},
			},
		},
		{
			name:  "range and paging",
			query: "createdFrom=2024-03-01T00:00:00Z&createdTo=2024-03-31T23:59:59Z&limit=10&offset=20",
			want: order.QueryOrdersModel{
				CreatedFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				CreatedTo:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
				Limit:       10,
				Offset:      20,
			},
		},
		{name: "bad id", query: "ids=1,x", wantErr: true},
		{name: "bad limit", query: "limit=ten", wantErr: true},
		{name: "bad time", query: "createdFrom=2024-03-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/orders?"+tt.query, nil)

			got, err := parseFilter(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			if len(tt.want.Ids) == 0 {
				tt.want.Ids = []int64{}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
