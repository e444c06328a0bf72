package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/ioutboxrepo"
	dalrabbit "github.com/corray333/backend-labs/fulfillment/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// NotificationCreatedQueue receives one message per stored notification.
const NotificationCreatedQueue = "fulfillment.notification.created"

type broker interface {
	DeclareQueue(cfg dalrabbit.DeclareQueueConfig) (amqp.Queue, error)
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

// EventRabbitMQRepository publishes domain events. A message the broker
// rejects is parked in the outbox for the outbox worker to relay.
type EventRabbitMQRepository struct {
	client      broker
	outboxRepo  ioutboxrepo.IOutboxRepository
	queue       amqp.Queue
	maxAttempts int
}

// MustNewEventRabbitMQRepository declares the event queue and panics when it cannot.
func MustNewEventRabbitMQRepository(client broker, outboxRepo ioutboxrepo.IOutboxRepository) *EventRabbitMQRepository {
	queue, err := client.DeclareQueue(dalrabbit.DeclareQueueConfig{
		Name:    NotificationCreatedQueue,
		Durable: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to declare queue %s: %v", NotificationCreatedQueue, err))
	}

	maxAttempts := viper.GetInt("rabbitmq.outbox.max_attempts")
	if maxAttempts == 0 {
		maxAttempts = 5
	}

	return &EventRabbitMQRepository{
		client:      client,
		outboxRepo:  outboxRepo,
		queue:       queue,
		maxAttempts: maxAttempts,
	}
}

// PublishNotificationCreated publishes the event, falling back to the outbox.
// It fails only when neither the broker nor the outbox accepted the message.
func (r *EventRabbitMQRepository) PublishNotificationCreated(
	ctx context.Context,
	event notification.CreatedEvent,
) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	publishErr := r.client.Publish(ctx, "", r.queue.Name, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.EventID.String(),
		Timestamp:   event.CreatedAt,
		Body:        payload,
	})
	if publishErr == nil {
		return nil
	}

	slog.Warn("Failed to publish notification event, storing in outbox",
		"event_id", event.EventID,
		"notification_id", event.NotificationID,
		"error", publishErr,
	)

	msg := outbox.NewMessage(event.EventID, "", r.queue.Name, payload, r.maxAttempts, publishErr, time.Now())
	err = r.outboxRepo.Insert(ctx, msg)
	if err != nil {
		return errors.Join(publishErr, fmt.Errorf("failed to store event in outbox: %w", err))
	}

	return nil
}
