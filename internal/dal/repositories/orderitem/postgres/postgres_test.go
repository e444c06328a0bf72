package postgresrepo

import (
	"testing"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	sql, args, err := buildQuery(&orderitem.QueryOrderItemsModel{OrderIds: []int64{4, 5}})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT oi.id, oi.order_id, oi.menu_item_id, COALESCE(m.title, ''), oi.quantity, oi.price, oi.created_at "+
			"FROM order_items oi LEFT JOIN menu_items m ON m.id = oi.menu_item_id "+
			"WHERE oi.order_id IN ($1,$2) ORDER BY oi.id ASC",
		sql,
	)
	assert.Equal(t, []any{int64(4), int64(5)}, args)
}
