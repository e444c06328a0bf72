package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/caarlos0/env/v10"
	"github.com/streadway/amqp"
)

// Env holds the broker credentials read from the environment.
type Env struct {
	User  string `env:"RABBITMQ_DEFAULT_USER" envDefault:"guest"`
	Pass  string `env:"RABBITMQ_DEFAULT_PASS" envDefault:"guest"`
	Host  string `env:"RABBITMQ_HOST" envDefault:"rabbitmq"`
	Port  int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	VHost string `env:"RABBITMQ_VHOST" envDefault:"/"`
}

func (e Env) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", e.User, e.Pass, e.Host, e.Port, e.VHost)
}

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Close() error
}

// Client represents a RabbitMQ client.
// An amqp.Channel must not be used for concurrent publishes, so Publish serializes them.
// A channel closed by the broker is reopened on the next publish.
type Client struct {
	url     string
	conn    *amqp.Connection
	channel channel
	reopen  func() (channel, error)
	mu      sync.Mutex
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn.Close()
	}

	return nil
}

// openChannel redials when the connection is gone and opens a fresh channel.
func (r *Client) openChannel() (channel, error) {
	if r.conn == nil || r.conn.IsClosed() {
		conn, err := amqp.Dial(r.url)
		if err != nil {
			return nil, fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
		}
		r.conn = conn
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return ch, nil
}

// MustNewClient creates a new RabbitMQ client from the environment.
func MustNewClient() *Client {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse RabbitMQ env: %v", err))
	}

	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		err := conn.Close()
		if err != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", err))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	slog.Info("RabbitMQ connected", "host", cfg.Host)

	c := &Client{
		url:     cfg.URL(),
		conn:    conn,
		channel: ch,
	}
	c.reopen = c.openChannel

	return c
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}

// Publish sends msg. The context is only checked before publishing.
func (r *Client) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.Publish(exchange, routingKey, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		slog.Warn("RabbitMQ channel closed, reopening", "error", err)

		ch, openErr := r.reopen()
		if openErr != nil {
			return fmt.Errorf("failed to publish to %q: %w", routingKey, errors.Join(err, openErr))
		}
		r.channel = ch
		err = r.channel.Publish(exchange, routingKey, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %q: %w", routingKey, err)
	}

	return nil
}
