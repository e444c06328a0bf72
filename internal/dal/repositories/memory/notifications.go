package memory

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
)

// NotificationRepository implements inotificationrepo.INotificationRepository.
type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Insert(
	_ context.Context,
	n notification.Notification,
) (notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpInsertNotification, 0); err != nil {
		return notification.Notification{}, err
	}

	n.ID = r.s.id()
	n.Read = false
	n.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, n)

	return n, nil
}

// ListByUser returns the user's notifications newest first.
func (r *NotificationRepository) ListByUser(
	_ context.Context,
	userID string,
	unreadOnly bool,
) ([]notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpListNotifications, 0); err != nil {
		return nil, err
	}

	var result []notification.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		result = append(result, n)
	}

	return result, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id int64, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpMarkRead, id); err != nil {
		return err
	}
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].Read = true
			return nil
		}
	}

	return fmt.Errorf("%w: notification %d for user %s", errs.ErrNotFound, id, userID)
}
