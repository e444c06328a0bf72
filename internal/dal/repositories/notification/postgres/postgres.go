package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
)

type PostgresNotificationRepository struct {
	conn postgres.Querier
}

func NewPostgresNotificationRepository(conn postgres.Querier) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{
		conn: conn,
	}
}

// Insert stores an unread notification and returns it with its id and creation time.
func (r *PostgresNotificationRepository) Insert(
	ctx context.Context,
	n notification.Notification,
) (notification.Notification, error) {
	query, args, err := sq.Insert("notifications").
		Columns("user_id", "message", "read").
		Values(n.UserID, n.Message, false).
		Suffix("RETURNING id, read, created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return notification.Notification{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&n.ID, &n.Read, &n.CreatedAt); err != nil {
		return notification.Notification{}, fmt.Errorf("failed to insert notification: %w", postgres.MapError(err))
	}

	return n, nil
}

func buildListByUser(userID string, unreadOnly bool) (string, []any, error) {
	b := sq.Select("id", "user_id", "message", "read", "created_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID})
	if unreadOnly {
		b = b.Where(sq.Eq{"read": false})
	}

	return b.OrderBy("created_at DESC", "id DESC").PlaceholderFormat(sq.Dollar).ToSql()
}

// ListByUser returns the user's notifications newest first.
func (r *PostgresNotificationRepository) ListByUser(
	ctx context.Context,
	userID string,
	unreadOnly bool,
) ([]notification.Notification, error) {
	query, args, err := buildListByUser(userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var result []notification.Notification
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		result = append(result, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", postgres.MapError(err))
	}

	return result, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id int64, userID string) error {
	query, args, err := sq.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %d for user %s", errs.ErrNotFound, id, userID)
	}

	return nil
}
