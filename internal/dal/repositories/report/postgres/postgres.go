package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
)

// PostgresReportRepository runs the read-only dashboard queries.
type PostgresReportRepository struct {
	conn postgres.Querier
}

func NewPostgresReportRepository(conn postgres.Querier) *PostgresReportRepository {
	return &PostgresReportRepository{
		conn: conn,
	}
}

func buildListPaidOrders(start, end time.Time) (string, []any, error) {
	return sq.Select("id", "created_at", "total_amount").
		From("orders").
		Where(sq.Eq{"payment_status": string(order.PaymentStatusPaid)}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.LtOrEq{"created_at": end}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *PostgresReportRepository) ListPaidOrders(
	ctx context.Context,
	start, end time.Time,
) ([]report.RevenueRecord, error) {
	query, args, err := buildListPaidOrders(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid orders: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []report.RevenueRecord
	for rows.Next() {
		var rec report.RevenueRecord
		if err := rows.Scan(&rec.OrderID, &rec.CreatedAt, &rec.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan paid order: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}

func buildListItemQuantities() (string, []any, error) {
	return sq.Select("oi.menu_item_id", "COALESCE(m.title, '')", "SUM(oi.quantity)").
		From("order_items oi").
		LeftJoin("menu_items m ON m.id = oi.menu_item_id").
		GroupBy("oi.menu_item_id", "m.title").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// ListItemQuantities sums quantities per menu item over every order item.
func (r *PostgresReportRepository) ListItemQuantities(ctx context.Context) ([]report.ItemQuantity, error) {
	query, args, err := buildListItemQuantities()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item quantities: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []report.ItemQuantity
	for rows.Next() {
		var item report.ItemQuantity
		if err := rows.Scan(&item.MenuItemID, &item.Title, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item quantity: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}

func (r *PostgresReportRepository) scalar(ctx context.Context, b sq.SelectBuilder, what string) (int64, error) {
	query, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s query: %w", what, err)
	}

	var n int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", what, postgres.MapError(err))
	}

	return n, nil
}

func (r *PostgresReportRepository) SumItemsSold(ctx context.Context) (int64, error) {
	return r.scalar(ctx, sq.Select("COALESCE(SUM(quantity), 0)").From("order_items"), "items sold")
}

func (r *PostgresReportRepository) CountCustomers(ctx context.Context) (int64, error) {
	return r.scalar(ctx, sq.Select("COUNT(DISTINCT user_id)").From("orders"), "customers")
}
