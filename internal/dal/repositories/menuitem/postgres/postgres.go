package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MenuItemDal represents menu item data access layer model.
type MenuItemDal struct {
	Id       int64           `db:"id"`
	Title    string          `db:"title"`
	Price    decimal.Decimal `db:"price"`
	Stock    int             `db:"stock"`
	IsActive bool            `db:"is_active"`
}

func (m *MenuItemDal) ToModel() menuitem.MenuItem {
	return menuitem.MenuItem{
		ID:       m.Id,
		Title:    m.Title,
		Price:    m.Price,
		Stock:    m.Stock,
		IsActive: m.IsActive,
	}
}

// applyDecrementSQL claims the application marker and lowers stock in one
// statement. When the marker already exists the CTE is empty, nothing is
// updated and no row comes back. The UPDATE takes the row lock, so concurrent
// decrements of the same item serialize and each sees the committed stock.
const applyDecrementSQL = `
WITH claimed AS (
	INSERT INTO stock_applications (order_id, target_status, menu_item_id, quantity, applied_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (order_id, target_status, menu_item_id) DO NOTHING
	RETURNING menu_item_id, quantity
)
UPDATE menu_items m
SET stock = GREATEST(m.stock - claimed.quantity, 0)
FROM claimed
WHERE m.id = claimed.menu_item_id
RETURNING m.stock`

type PostgresMenuItemRepository struct {
	conn postgres.Querier
}

func NewPostgresMenuItemRepository(conn postgres.Querier) *PostgresMenuItemRepository {
	return &PostgresMenuItemRepository{
		conn: conn,
	}
}

func (r *PostgresMenuItemRepository) Get(ctx context.Context, id int64) (menuitem.MenuItem, error) {
	query, args, err := sq.Select("id", "title", "price", "stock", "is_active").
		From("menu_items").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return menuitem.MenuItem{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal MenuItemDal
	err = r.conn.QueryRow(ctx, query, args...).Scan(&dal.Id, &dal.Title, &dal.Price, &dal.Stock, &dal.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menuitem.MenuItem{}, fmt.Errorf("%w: menu item %d", errs.ErrNotFound, id)
		}

		return menuitem.MenuItem{}, fmt.Errorf("failed to get menu item: %w", postgres.MapError(err))
	}

	return dal.ToModel(), nil
}

// ApplyDecrement implements imenuitemrepo.IMenuItemRepository.
func (r *PostgresMenuItemRepository) ApplyDecrement(
	ctx context.Context,
	key menuitem.DecrementKey,
	decrement menuitem.Decrement,
) (menuitem.DecrementOutcome, error) {
	if decrement.Quantity <= 0 {
		return menuitem.DecrementOutcome{}, errs.Validationf("quantity must be positive, got %d", decrement.Quantity)
	}

	var stock int
	err := r.conn.QueryRow(ctx, applyDecrementSQL,
		key.OrderID,
		key.TargetStatus,
		decrement.MenuItemID,
		decrement.Quantity,
	).Scan(&stock)
	if err == nil {
		return menuitem.DecrementOutcome{Applied: true, Stock: stock}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return menuitem.DecrementOutcome{}, fmt.Errorf("failed to apply decrement: %w", postgres.MapError(err))
	}

	// Already applied under this key.
	current, err := r.Get(ctx, decrement.MenuItemID)
	if err != nil {
		return menuitem.DecrementOutcome{}, err
	}

	return menuitem.DecrementOutcome{Applied: false, Stock: current.Stock}, nil
}
