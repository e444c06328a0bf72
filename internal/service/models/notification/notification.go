package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an unread-by-default message for a user.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatedEvent is published after a notification row is stored.
type CreatedEvent struct {
	EventID        uuid.UUID `json:"eventId"`
	NotificationID int64     `json:"notificationId"`
	UserID         string    `json:"userId"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewCreatedEvent(n Notification) CreatedEvent {
	return CreatedEvent{
		EventID:        uuid.New(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
}
