package postgresrepo

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   *order.QueryOrdersModel
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  nil,
			wantSQL: "SELECT id, user_id, status, payment_status, payment_method, total_amount, proof_of_payment_ref, revision, created_at, updated_at FROM orders ORDER BY id ASC",
		},
		{
			name: "ids statuses and page",
			filter: &order.QueryOrdersModel{
				Ids:      []int64{1, 2},
				Statuses: []order.Status{order.StatusPending},
				Limit:    10,
				Offset:   20,
			},
			wantSQL: "SELECT id, user_id, status, payment_status, payment_method, total_amount, proof_of_payment_ref, revision, created_at, updated_at FROM orders " +
				"WHERE id IN ($1,$2) AND status IN ($3) ORDER BY id ASC LIMIT 10 OFFSET 20",
			wantArgs: []any{int64(1), int64(2), "pending"},
		},
		{
			name: "users and created range",
			filter: &order.QueryOrdersModel{
				UserIds:     []string{"u1"},
				CreatedFrom: from,
			},
			wantSQL: "SELECT id, user_id, status, payment_status, payment_method, total_amount, proof_of_payment_ref, revision, created_at, updated_at FROM orders " +
				"WHERE user_id IN ($1) AND created_at >= $2 ORDER BY id ASC",
			wantArgs: []any{"u1", from},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildQuery(tt.filter)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuildCount(t *testing.T) {
	sql, args, err := buildCount(&order.QueryOrdersModel{
		Statuses: []order.Status{order.StatusPending},
		Limit:    5,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM orders WHERE status IN ($1)", sql)
	assert.Equal(t, []any{"pending"}, args)
}

func TestBuildGuardedUpdate(t *testing.T) {
	sql, args, err := buildGuardedUpdate(7, 3, map[string]any{"status": "processing"})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE orders SET status = $1, revision = revision + 1, updated_at = now() WHERE id = $2 AND revision = $3",
		sql,
	)
	assert.Equal(t, []any{"processing", int64(7), int64(3)}, args)
}

func TestOrderDal_ToModel(t *testing.T) {
	dal := OrderDal{
		Id:            1,
		UserId:        "u1",
		Status:        "completed",
		PaymentStatus: "paid",
		TotalAmount:   decimal.RequireFromString("40000.00"),
		Revision:      2,
	}

	model, err := dal.ToModel()
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, model.Status)
	assert.Equal(t, order.PaymentStatusPaid, model.PaymentStatus)
	assert.True(t, decimal.NewFromInt(40000).Equal(model.TotalAmount))

	dal.Status = "shipped"
	_, err = dal.ToModel()
	require.ErrorIs(t, err, order.ErrInvalidStatus)
}
