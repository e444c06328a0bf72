package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	publishErr error
	published  []string
	closed     bool
}

func (c *fakeChannel) Publish(_, key string, _, _ bool, _ amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, key)

	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) Close() error {
	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true

	return nil
}

func TestClient_PublishReopensClosedChannel(t *testing.T) {
	dead := &fakeChannel{publishErr: amqp.ErrClosed}
	fresh := &fakeChannel{}
	reopens := 0
	client := &Client{
		channel: dead,
		reopen: func() (channel, error) {
			reopens++
			return fresh, nil
		},
	}

	require.NoError(t, client.Publish(context.Background(), "", "notifications", amqp.Publishing{}))
	require.NoError(t, client.Publish(context.Background(), "", "notifications", amqp.Publishing{}))

	assert.Equal(t, 1, reopens)
	assert.Equal(t, []string{"notifications", "notifications"}, fresh.published)
}

func TestClient_PublishReopenFails(t *testing.T) {
	dead := &fakeChannel{publishErr: amqp.ErrClosed}
	dialErr := errors.New("connection refused")
	client := &Client{
		channel: dead,
		reopen: func() (channel, error) {
			return nil, dialErr
		},
	}

	err := client.Publish(context.Background(), "", "notifications", amqp.Publishing{})

	require.ErrorIs(t, err, amqp.ErrClosed)
	require.ErrorIs(t, err, dialErr)
	assert.Same(t, dead, client.channel)
}

func TestClient_PublishOtherErrorsDoNotReopen(t *testing.T) {
	nack := errors.New("publish rejected")
	client := &Client{
		channel: &fakeChannel{publishErr: nack},
		reopen: func() (channel, error) {
			t.Fatal("reopen must not be called")
			return nil, nil
		},
	}

	err := client.Publish(context.Background(), "", "notifications", amqp.Publishing{})

	assert.ErrorIs(t, err, nack)
}

func TestClient_CloseToleratesClosedChannel(t *testing.T) {
	client := &Client{channel: &fakeChannel{closed: true}}

	assert.NoError(t, client.Close())
}
