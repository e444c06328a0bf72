package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
)

// PostgresAuditRepository reads the stock application markers.
type PostgresAuditRepository struct {
	conn postgres.Querier
}

func NewPostgresAuditRepository(conn postgres.Querier) *PostgresAuditRepository {
	return &PostgresAuditRepository{
		conn: conn,
	}
}

func (r *PostgresAuditRepository) ListStockApplications(
	ctx context.Context,
	orderID int64,
) ([]auditlog.StockApplication, error) {
	query, args, err := sq.Select("order_id", "target_status", "menu_item_id", "quantity", "applied_at").
		From("stock_applications").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("target_status ASC", "menu_item_id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock applications: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []auditlog.StockApplication
	for rows.Next() {
		var a auditlog.StockApplication
		if err := rows.Scan(&a.OrderID, &a.TargetStatus, &a.MenuItemID, &a.Quantity, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock application: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}
