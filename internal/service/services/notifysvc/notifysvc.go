package notifysvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/inotificationrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NotificationService appends notifications for users and announces them on the broker.
type NotificationService struct {
	repo   inotificationrepo.INotificationRepository
	events ieventrepo.IEventRepository
}

type option func(*NotificationService)

// MustNewNotificationService creates a new NotificationService.
func MustNewNotificationService(opts ...option) *NotificationService {
	s := &NotificationService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.repo == nil {
		panic("notifysvc: notification repository is required")
	}

	return s
}

// WithNotificationRepository sets the notification repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotificationRepository(repo inotificationrepo.INotificationRepository) option {
	return func(s *NotificationService) {
		s.repo = repo
	}
}

// WithEventRepository enables publishing notification.created events.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventRepository(events ieventrepo.IEventRepository) option {
	return func(s *NotificationService) {
		s.events = events
	}
}

// Notify stores an unread notification for userID. The row is the delivery;
// the broker event is best effort and a publish failure does not fail Notify.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID string,
	message string,
) (notification.Notification, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "NotificationService.Notify",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return notification.Notification{}, errs.Validationf("user id is required")
	}
	if strings.TrimSpace(message) == "" {
		return notification.Notification{}, errs.Validationf("message is required")
	}

	n, err := s.repo.Insert(ctx, notification.Notification{UserID: userID, Message: message})
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return notification.Notification{}, fmt.Errorf("failed to insert notification: %w", err)
	}
	metrics.Notifications.WithLabelValues("stored").Inc()

	if s.events != nil {
		if err := s.events.PublishNotificationCreated(ctx, notification.NewCreatedEvent(n)); err != nil {
			slog.Warn("Failed to publish notification event",
				"notification_id", n.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}

	return n, nil
}

// ListUnread returns the user's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID string) ([]notification.Notification, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "NotificationService.ListUnread")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, errs.Validationf("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []notification.Notification{}
	}

	return notifications, nil
}

// MarkRead marks the user's notification as read. Marking it twice is not an error.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, userID string) error {
	ctx, span := otel.Tracer("service").Start(ctx, "NotificationService.MarkRead")
	defer span.End()

	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	return nil
}
