package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcalendar/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus(8, testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []domain.InviteCreated
	var other int
	bus.Subscribe(domain.TopicInviteCreated, Typed(func(ctx context.Context, evt domain.InviteCreated) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt)
		return nil
	}))
	bus.Subscribe(domain.TopicInviteCreated, func(ctx context.Context, topic string, payload any) error {
		return errors.New("second subscriber fails")
	})
	bus.Subscribe(domain.TopicMemberJoined, func(ctx context.Context, topic string, payload any) error {
		mu.Lock()
		defer mu.Unlock()
		other++
		return nil
	})
	go bus.Run(ctx)

	require.NoError(t, bus.Publish(ctx, domain.TopicInviteCreated, domain.InviteCreated{InviteID: "inv-1"}))
	require.NoError(t, bus.Publish(ctx, domain.TopicInviteCreated, &domain.InviteCreated{InviteID: "inv-2"}))
	require.NoError(t, bus.Publish(ctx, domain.TopicTaskCreated, domain.TaskCreated{TaskID: "t-1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "inv-1", got[0].InviteID)
	assert.Equal(t, "inv-2", got[1].InviteID)
	assert.Zero(t, other)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus(1, testLogger)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, "t", 1))
	require.ErrorIs(t, bus.Publish(ctx, "t", 2), ErrBusFull)

	bus.Close()
	bus.Close()
	require.ErrorIs(t, bus.Publish(ctx, "t", 3), ErrBusClosed)
}

func TestBus_RunStopsOnClose(t *testing.T) {
	bus := NewBus(1, testLogger)
	done := make(chan struct{})
	go func() {
		bus.Run(context.Background())
		close(done)
	}()
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestTyped(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var seen []string
	h := Typed(func(ctx context.Context, p payload) error {
		seen = append(seen, p.Name)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, h(ctx, "t", payload{Name: "value"}))
	require.NoError(t, h(ctx, "t", &payload{Name: "pointer"}))
	require.NoError(t, h(ctx, "t", []byte(`{"name":"bytes"}`)))
	assert.Equal(t, []string{"value", "pointer", "bytes"}, seen)

	assert.Error(t, h(ctx, "t", (*payload)(nil)))
	assert.Error(t, h(ctx, "t", []byte(`{not json`)))
	assert.Error(t, h(ctx, "t", 42))
}
