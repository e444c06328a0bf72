package inotificationrepo

import (
	"context"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
)

// INotificationRepository is an interface for notification repository.
type INotificationRepository interface {
	Insert(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id int64, userID string) error
}
