package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var outboxColumns = []string{
	"id",
	"message_id",
	"exchange",
	"routing_key",
	"payload",
	"content_type",
	"attempts",
	"max_attempts",
	"last_error",
	"created_at",
	"updated_at",
	"next_attempt_at",
}

// OutboxDal is a row of the outbox table.
type OutboxDal struct {
	ID            int64
	MessageID     uuid.UUID
	Exchange      string
	RoutingKey    string
	Payload       []byte
	ContentType   string
	Attempts      int
	MaxAttempts   int
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	NextAttemptAt time.Time
}

func (d *OutboxDal) scan(row pgx.Row) error {
	return row.Scan(
		&d.ID,
		&d.MessageID,
		&d.Exchange,
		&d.RoutingKey,
		&d.Payload,
		&d.ContentType,
		&d.Attempts,
		&d.MaxAttempts,
		&d.LastError,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.NextAttemptAt,
	)
}

func (d *OutboxDal) ToModel() outbox.Message {
	return outbox.Message{
		ID:            d.ID,
		MessageID:     d.MessageID,
		Exchange:      d.Exchange,
		RoutingKey:    d.RoutingKey,
		Payload:       d.Payload,
		ContentType:   d.ContentType,
		Attempts:      d.Attempts,
		MaxAttempts:   d.MaxAttempts,
		LastError:     d.LastError,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		NextAttemptAt: d.NextAttemptAt,
	}
}

// OutboxRepository parks unpublished broker messages in Postgres.
type OutboxRepository struct {
	conn postgres.Querier
}

func NewOutboxRepository(conn postgres.Querier) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
	}
}

func buildInsert(msg outbox.Message) (string, []any, error) {
	return sq.Insert("outbox").
		Columns(outboxColumns[1:]...).
		Values(
			msg.MessageID,
			msg.Exchange,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.Attempts,
			msg.MaxAttempts,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextAttemptAt,
		).
		Suffix("ON CONFLICT (message_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	query, args, err := buildInsert(msg)
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to park outbox message: %w", postgres.MapError(err))
	}

	return nil
}

func buildListDue(now time.Time, limit int) (string, []any, error) {
	return sq.Select(outboxColumns...).
		From("outbox").
		Where(sq.LtOrEq{"next_attempt_at": now}).
		Where("attempts < max_attempts").
		OrderBy("next_attempt_at ASC", "id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	query, args, err := buildListDue(now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list due outbox messages: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var messages []outbox.Message
	for rows.Next() {
		var dal OutboxDal
		if err := dal.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, dal.ToModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox messages: %w", postgres.MapError(err))
	}

	return messages, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("outbox").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message: %w", postgres.MapError(err))
	}

	return nil
}

func buildRecordFailure(id int64, f outbox.Failure, now time.Time) (string, []any, error) {
	return sq.Update("outbox").
		SetMap(map[string]any{
			"attempts":        f.Attempts,
			"last_error":      f.LastError,
			"next_attempt_at": f.NextAttemptAt,
			"updated_at":      now,
		}).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, failure outbox.Failure) error {
	query, args, err := buildRecordFailure(id, failure, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to record outbox failure: %w", postgres.MapError(pgx.ErrNoRows))
	}

	return nil
}
