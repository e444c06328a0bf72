package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id         int64           `db:"id"`
	OrderId    int64           `db:"order_id"`
	MenuItemId int64           `db:"menu_item_id"`
	Title      string          `db:"title"`
	Quantity   int             `db:"quantity"`
	Price      decimal.Decimal `db:"price"`
	CreatedAt  time.Time       `db:"created_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:         oi.Id,
		OrderID:    oi.OrderId,
		MenuItemID: oi.MenuItemId,
		Title:      oi.Title,
		Quantity:   oi.Quantity,
		Price:      oi.Price,
		CreatedAt:  oi.CreatedAt,
	}
}

type PostgresOrderItemRepository struct {
	conn postgres.Querier
}

func NewPostgresOrderItemRepository(conn postgres.Querier) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

func buildQuery(filter *orderitem.QueryOrderItemsModel) (string, []any, error) {
	b := sq.Select(
		"oi.id",
		"oi.order_id",
		"oi.menu_item_id",
		"COALESCE(m.title, '')",
		"oi.quantity",
		"oi.price",
		"oi.created_at",
	).
		From("order_items oi").
		LeftJoin("menu_items m ON m.id = oi.menu_item_id")

	if filter != nil {
		if len(filter.Ids) > 0 {
			b = b.Where(sq.Eq{"oi.id": filter.Ids})
		}
		if len(filter.OrderIds) > 0 {
			b = b.Where(sq.Eq{"oi.order_id": filter.OrderIds})
		}
		if len(filter.MenuItemIds) > 0 {
			b = b.Where(sq.Eq{"oi.menu_item_id": filter.MenuItemIds})
		}
	}

	return b.OrderBy("oi.id ASC").PlaceholderFormat(sq.Dollar).ToSql()
}

// Query retrieves order items with their menu titles.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query, args, err := buildQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.MenuItemId,
			&dal.Title,
			&dal.Quantity,
			&dal.Price,
			&dal.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}
