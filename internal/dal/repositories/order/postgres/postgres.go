package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                int64           `db:"id"`
	UserId            string          `db:"user_id"`
	Status            string          `db:"status"`
	PaymentStatus     string          `db:"payment_status"`
	PaymentMethod     string          `db:"payment_method"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	ProofOfPaymentRef string          `db:"proof_of_payment_ref"`
	Revision          int64           `db:"revision"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

var orderColumns = []string{
	"id",
	"user_id",
	"status",
	"payment_status",
	"payment_method",
	"total_amount",
	"proof_of_payment_ref",
	"revision",
	"created_at",
	"updated_at",
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.UserId,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.TotalAmount,
		&o.ProofOfPaymentRef,
		&o.Revision,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return order.Order{}, err
	}
	paymentStatus, err := order.ParsePaymentStatus(o.PaymentStatus)
	if err != nil {
		return order.Order{}, err
	}

	return order.Order{
		ID:                o.Id,
		UserID:            o.UserId,
		Status:            status,
		PaymentStatus:     paymentStatus,
		PaymentMethod:     o.PaymentMethod,
		TotalAmount:       o.TotalAmount,
		ProofOfPaymentRef: o.ProofOfPaymentRef,
		Revision:          o.Revision,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}, nil
}

type PostgresOrderRepository struct {
	conn postgres.Querier
}

func NewPostgresOrderRepository(conn postgres.Querier) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

func applyFilter(b sq.SelectBuilder, filter *order.QueryOrdersModel) sq.SelectBuilder {
	if filter == nil {
		return b
	}
	if len(filter.Ids) > 0 {
		b = b.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.UserIds) > 0 {
		b = b.Where(sq.Eq{"user_id": filter.UserIds})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if len(filter.PaymentStatuses) > 0 {
		statuses := make([]string, 0, len(filter.PaymentStatuses))
		for _, s := range filter.PaymentStatuses {
			statuses = append(statuses, string(s))
		}
		b = b.Where(sq.Eq{"payment_status": statuses})
	}
	if !filter.CreatedFrom.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": filter.CreatedFrom})
	}
	if !filter.CreatedTo.IsZero() {
		b = b.Where(sq.LtOrEq{"created_at": filter.CreatedTo})
	}

	return b
}

func buildQuery(filter *order.QueryOrdersModel) (string, []any, error) {
	b := applyFilter(sq.Select(orderColumns...).From("orders"), filter).OrderBy("id ASC")
	if filter != nil {
		if filter.Limit > 0 {
			b = b.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}

	return b.PlaceholderFormat(sq.Dollar).ToSql()
}

func buildCount(filter *order.QueryOrdersModel) (string, []any, error) {
	return applyFilter(sq.Select("COUNT(*)").From("orders"), filter).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// Get retrieves a single order without its items.
func (r *PostgresOrderRepository) Get(ctx context.Context, id int64) (order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, fmt.Errorf("%w: order %d", errs.ErrNotFound, id)
		}

		return order.Order{}, fmt.Errorf("failed to get order: %w", postgres.MapError(err))
	}

	return dal.ToModel()
}

// Query retrieves orders based on filter criteria.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query, args, err := buildQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}

// Count returns the number of orders matching filter. Limit and offset are ignored.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error) {
	query, args, err := buildCount(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", postgres.MapError(err))
	}

	return n, nil
}

// buildGuardedUpdate sets the given columns when the row still has expectedRevision.
func buildGuardedUpdate(id, expectedRevision int64, set map[string]any) (string, []any, error) {
	return sq.Update("orders").
		SetMap(set).
		Set("revision", sq.Expr("revision + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "revision": expectedRevision}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *PostgresOrderRepository) guardedUpdate(
	ctx context.Context,
	id, expectedRevision int64,
	set map[string]any,
) error {
	query, args, err := buildGuardedUpdate(id, expectedRevision, set)
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: the order is gone or its revision moved on.
	var exists bool
	if err := r.conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", postgres.MapError(err))
	}
	if !exists {
		return fmt.Errorf("%w: order %d", errs.ErrNotFound, id)
	}

	return fmt.Errorf("%w: order %d is no longer at revision %d", errs.ErrConflict, id, expectedRevision)
}

func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status order.Status,
	expectedRevision int64,
) error {
	return r.guardedUpdate(ctx, id, expectedRevision, map[string]any{"status": string(status)})
}

func (r *PostgresOrderRepository) UpdatePaymentStatus(
	ctx context.Context,
	id int64,
	status order.PaymentStatus,
	expectedRevision int64,
) error {
	return r.guardedUpdate(ctx, id, expectedRevision, map[string]any{"payment_status": string(status)})
}

func (r *PostgresOrderRepository) UpdatePayment(
	ctx context.Context,
	id int64,
	update order.PaymentUpdate,
	expectedRevision int64,
) error {
	return r.guardedUpdate(ctx, id, expectedRevision, map[string]any{
		"payment_method":       update.Method,
		"payment_status":       string(update.Status),
		"proof_of_payment_ref": update.ProofOfPaymentRef,
	})
}
