package memory

import (
	"context"
	"sort"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
)

// OutboxRepository implements ioutboxrepo.IOutboxRepository.
type OutboxRepository struct {
	s *Store
}

func (r *OutboxRepository) Insert(_ context.Context, msg outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpInsertOutbox, 0); err != nil {
		return err
	}
	for _, parked := range r.s.outbox {
		if parked.MessageID == msg.MessageID {
			return nil
		}
	}
	msg.ID = r.s.id()
	r.s.outbox[msg.ID] = msg

	return nil
}

func (r *OutboxRepository) ListDue(_ context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpListDueOutbox, 0); err != nil {
		return nil, err
	}

	var messages []outbox.Message
	for _, msg := range r.s.outbox {
		if msg.NextAttemptAt.After(now) || msg.Exhausted() {
			continue
		}
		messages = append(messages, msg)
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].NextAttemptAt.Equal(messages[j].NextAttemptAt) {
			return messages[i].NextAttemptAt.Before(messages[j].NextAttemptAt)
		}
		return messages[i].ID < messages[j].ID
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}

	return messages, nil
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpDeleteOutbox, id); err != nil {
		return err
	}
	delete(r.s.outbox, id)

	return nil
}

func (r *OutboxRepository) RecordFailure(_ context.Context, id int64, failure outbox.Failure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpOutboxFailure, id); err != nil {
		return err
	}
	msg, ok := r.s.outbox[id]
	if !ok {
		return notFound("outbox message", id)
	}
	msg.Attempts = failure.Attempts
	msg.LastError = failure.LastError
	msg.NextAttemptAt = failure.NextAttemptAt
	msg.UpdatedAt = r.s.now()
	r.s.outbox[id] = msg

	return nil
}
