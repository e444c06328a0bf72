package ieventrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
)

// IEventRepository publishes domain events to the message broker.
type IEventRepository interface {
	PublishNotificationCreated(ctx context.Context, event notification.CreatedEvent) error
}
