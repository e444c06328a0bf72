package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/memory"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []amqp.Publishing
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, _, _ string, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)

	return nil
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func park(t *testing.T, store *memory.Store, maxAttempts int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	msg := outbox.NewMessage(id, "", "fulfillment.notification.created", []byte(`{}`), maxAttempts, errors.New("closed"), epoch)
	require.NoError(t, store.Outbox().Insert(context.Background(), msg))

	return id
}

func newTestWorker(store *memory.Store, pub publisher, now *time.Time) *Worker {
	w := NewWorker(store.Outbox(), pub)
	w.now = func() time.Time { return *now }

	return w
}

func TestWorker_RelaysAndDeletes(t *testing.T) {
	now := epoch
	store := memory.NewStore()
	id := park(t, store, 3)
	pub := &fakePublisher{}

	newTestWorker(store, pub, &now).processMessages(context.Background())

	require.Len(t, pub.published, 1)
	assert.Equal(t, id.String(), pub.published[0].MessageId)
	assert.Empty(t, store.AllOutbox())
}

func TestWorker_DuplicateParkIsIgnored(t *testing.T) {
	store := memory.NewStore()
	id := park(t, store, 3)

	msg := outbox.NewMessage(id, "", "fulfillment.notification.created", []byte(`{}`), 3, nil, epoch)
	require.NoError(t, store.Outbox().Insert(context.Background(), msg))

	assert.Len(t, store.AllOutbox(), 1)
}

func TestWorker_SchedulesRetryWithBackoff(t *testing.T) {
	now := epoch
	store := memory.NewStore()
	park(t, store, 3)

	w := newTestWorker(store, &fakePublisher{err: errors.New("broker unavailable")}, &now)
	w.processMessages(context.Background())

	parked := store.AllOutbox()
	require.Len(t, parked, 1)
	assert.Equal(t, 1, parked[0].Attempts)
	assert.Equal(t, "broker unavailable", parked[0].LastError)
	assert.Equal(t, now.Add(60*time.Second), parked[0].NextAttemptAt)

	w.processMessages(context.Background())
	assert.Equal(t, 1, store.AllOutbox()[0].Attempts, "not due yet")

	now = now.Add(60 * time.Second)
	w.processMessages(context.Background())
	assert.Equal(t, 2, store.AllOutbox()[0].Attempts)
}

func TestWorker_StopsAfterMaxAttempts(t *testing.T) {
	now := epoch
	store := memory.NewStore()
	park(t, store, 2)

	w := newTestWorker(store, &fakePublisher{err: errors.New("broker unavailable")}, &now)
	for range 5 {
		w.processMessages(context.Background())
		now = now.Add(time.Hour)
	}

	parked := store.AllOutbox()
	require.Len(t, parked, 1)
	assert.Equal(t, 2, parked[0].Attempts)
	assert.True(t, parked[0].Exhausted())
	assert.Equal(t, 2, store.Calls(memory.OpOutboxFailure))
}

func TestWorker_Backoff(t *testing.T) {
	w := NewWorker(memory.NewStore().Outbox(), &fakePublisher{})

	assert.Equal(t, 60*time.Second, w.backoff(1))
	assert.Equal(t, 120*time.Second, w.backoff(2))
	assert.Equal(t, 240*time.Second, w.backoff(3))
}
