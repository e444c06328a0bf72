package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message is a broker message parked after a failed publish, waiting for relay.
// MessageID is the event id and stays the same across relay attempts so
// consumers can drop duplicates.
type Message struct {
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

// NewMessage parks a message that failed its first publish with cause. It is due immediately.
func NewMessage(
	messageID uuid.UUID,
	exchange, routingKey string,
	payload []byte,
	maxAttempts int,
	cause error,
	now time.Time,
) Message {
	msg := Message{
		MessageID:     messageID,
		Exchange:      exchange,
		RoutingKey:    routingKey,
		Payload:       payload,
		ContentType:   "application/json",
		MaxAttempts:   maxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
		NextAttemptAt: now,
	}
	if cause != nil {
		msg.LastError = cause.Error()
	}

	return msg
}

// Exhausted reports whether the relay has given up on the message.
func (m Message) Exhausted() bool {
	return m.Attempts >= m.MaxAttempts
}

// Failure is the relay state recorded after an unsuccessful publish.
type Failure struct {
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
}
