package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

type publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

// Worker relays messages parked in the outbox to the broker.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     publisher
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	now           func() time.Time
	stopCh        chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// backoff is retryInterval * 2^attempts: 60s, 120s, 240s... with the default interval.
func (w *Worker) backoff(attempts int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempts)) * float64(w.retryInterval))
}

// processMessages publishes every due message once. Published messages are
// deleted; failed ones are rescheduled until they run out of attempts and
// stay parked for an operator.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to list due outbox messages", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Relaying outbox messages", "count", len(messages))

	for _, msg := range messages {
		w.relay(ctx, msg)
	}
}

func (w *Worker) relay(ctx context.Context, msg outbox.Message) {
	err := w.publisher.Publish(ctx, msg.Exchange, msg.RoutingKey, amqp.Publishing{
		ContentType: msg.ContentType,
		MessageId:   msg.MessageID.String(),
		Timestamp:   msg.CreatedAt,
		Body:        msg.Payload,
	})
	if err != nil {
		msg.Attempts++
		failure := outbox.Failure{
			Attempts:      msg.Attempts,
			LastError:     err.Error(),
			NextAttemptAt: w.now().Add(w.backoff(msg.Attempts)),
		}

		if msg.Exhausted() {
			metrics.OutboxRelays.WithLabelValues("exhausted").Inc()
			slog.Error("Outbox message ran out of relay attempts",
				"outbox_id", msg.ID,
				"message_id", msg.MessageID,
				"routing_key", msg.RoutingKey,
				"attempts", msg.Attempts,
				"error", err,
			)
		} else {
			metrics.OutboxRelays.WithLabelValues("retry").Inc()
			slog.Warn("Failed to relay outbox message, will retry",
				"outbox_id", msg.ID,
				"attempts", msg.Attempts,
				"next_attempt_at", failure.NextAttemptAt,
				"error", err,
			)
		}

		if err := w.outboxRepo.RecordFailure(ctx, msg.ID, failure); err != nil {
			slog.Error("Failed to record outbox failure", "outbox_id", msg.ID, "error", err)
		}

		return
	}

	metrics.OutboxRelays.WithLabelValues("published").Inc()
	if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
		slog.Error("Failed to delete relayed outbox message", "outbox_id", msg.ID, "error", err)

		return
	}

	slog.Debug("Outbox message relayed", "outbox_id", msg.ID, "message_id", msg.MessageID)
}
