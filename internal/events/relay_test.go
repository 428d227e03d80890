package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcalendar/internal/domain"
)

// memOutbox is an in-memory OutboxStore.
type memOutbox struct {
	mu        sync.Mutex
	msgs      []*domain.OutboxMessage
	delivered map[string]time.Time
	fetchErr  error
	lastLimit int
}

func newMemOutbox() *memOutbox {
	return &memOutbox{delivered: make(map[string]time.Time)}
}

func (m *memOutbox) add(t *testing.T, id, topic string, payload any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	m.msgs = append(m.msgs, &domain.OutboxMessage{ID: id, Topic: topic, Payload: body})
}

func (m *memOutbox) FetchPending(ctx context.Context, topics []string, maxAttempts, limit int) ([]*domain.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.lastLimit = limit
	wanted := make(map[string]bool, len(topics))
	for _, t := range topics {
		wanted[t] = true
	}
	var out []*domain.OutboxMessage
	for _, msg := range m.msgs {
		if _, done := m.delivered[msg.ID]; done || !wanted[msg.Topic] || msg.Attempts >= maxAttempts {
			continue
		}
		cp := *msg
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memOutbox) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered[id] = at
	return nil
}

func (m *memOutbox) MarkFailed(ctx context.Context, id string, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			msg.Attempts++
			msg.LastError = lastErr
			return nil
		}
	}
	return domain.ErrNotFound
}

func TestRelay_Poll(t *testing.T) {
	store := newMemOutbox()
	store.add(t, "m1", domain.TopicInviteCreated, domain.InviteCreated{InviteID: "inv-1", DestinationAddress: "a@x.com"})
	store.add(t, "m2", domain.TopicInviteCreated, domain.InviteCreated{InviteID: "inv-2", DestinationAddress: "fail@x.com"})
	store.add(t, "m3", domain.TopicEventCreated, domain.EventCreated{EventID: "ev-1"})

	relay := NewRelay(store, RelayConfig{BatchSize: 10, MaxAttempts: 2}, testLogger)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	relay.now = func() time.Time { return now }

	var handled []string
	relay.Handle(domain.TopicInviteCreated, Typed(func(ctx context.Context, evt domain.InviteCreated) error {
		handled = append(handled, evt.InviteID)
		if evt.DestinationAddress == "fail@x.com" {
			return errors.New("consumer unavailable")
		}
		return nil
	}))

	n, err := relay.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"inv-1", "inv-2"}, handled)
	assert.Equal(t, now, store.delivered["m1"])
	assert.Equal(t, 1, store.msgs[1].Attempts)
	assert.Equal(t, "consumer unavailable", store.msgs[1].LastError)
	assert.NotContains(t, store.delivered, "m3", "unsubscribed topics are left alone")

	// The failed message is retried until it runs out of attempts.
	_, err = relay.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.msgs[1].Attempts)
	n, err = relay.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"inv-1", "inv-2", "inv-2"}, handled)
}

func TestRelay_Poll_NoHandlers(t *testing.T) {
	store := newMemOutbox()
	store.fetchErr = errors.New("must not be called")
	n, err := NewRelay(store, RelayConfig{}, testLogger).Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_Poll_FetchError(t *testing.T) {
	store := newMemOutbox()
	store.fetchErr = errors.New("db down")
	relay := NewRelay(store, RelayConfig{}, testLogger)
	relay.Handle(domain.TopicInviteCreated, func(context.Context, string, any) error { return nil })
	_, err := relay.Poll(context.Background())
	require.Error(t, err)
}

func TestRelay_Run(t *testing.T) {
	store := newMemOutbox()
	store.add(t, "m1", domain.TopicMemberJoined, domain.MemberJoined{UserID: "u1"})
	relay := NewRelay(store, RelayConfig{PollInterval: 10 * time.Millisecond}, testLogger)

	got := make(chan string, 1)
	relay.Handle(domain.TopicMemberJoined, Typed(func(ctx context.Context, evt domain.MemberJoined) error {
		got <- evt.UserID
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case id := <-got:
		assert.Equal(t, "u1", id)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.Equal(t, defaultRelayBatchSize, store.lastLimit)
}
