package postgresrepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListPaidOrders(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	sql, args, err := buildListPaidOrders(start, end)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, created_at, total_amount FROM orders "+
			"WHERE payment_status = $1 AND created_at >= $2 AND created_at <= $3 "+
			"ORDER BY created_at ASC, id ASC",
		sql,
	)
	assert.Equal(t, []any{"paid", start, end}, args)
}

func TestBuildListItemQuantities(t *testing.T) {
	sql, args, err := buildListItemQuantities()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT oi.menu_item_id, COALESCE(m.title, ''), SUM(oi.quantity) FROM order_items oi "+
			"LEFT JOIN menu_items m ON m.id = oi.menu_item_id GROUP BY oi.menu_item_id, m.title",
		sql,
	)
	assert.Empty(t, args)
}
