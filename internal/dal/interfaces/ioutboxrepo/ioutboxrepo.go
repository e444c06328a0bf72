package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
)

// IOutboxRepository stores broker messages awaiting relay.
type IOutboxRepository interface {
	// Insert parks msg. A message id that is already parked is ignored.
	Insert(ctx context.Context, msg outbox.Message) error
	// ListDue returns non-exhausted messages due at now, oldest due first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error)
	Delete(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, failure outbox.Failure) error
}
