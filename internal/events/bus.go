package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const defaultBusBuffer = 256

var (
	// ErrBusFull is returned by Publish when the dispatch queue has no room.
	ErrBusFull = errors.New("event bus full")
	// ErrBusClosed is returned by Publish after Close.
	ErrBusClosed = errors.New("event bus closed")
)

type envelope struct {
	topic   string
	payload any
}

// Bus is an in-process publisher. Publish only enqueues; Run delivers each event
// to the topic's subscribers on its own goroutine, so a slow consumer never
// holds up the publisher.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	queue     chan envelope
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewBus returns an in-process Bus queueing up to buffer events. Call Run to
// start delivery.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultBusBuffer
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan envelope, buffer),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish implements domain.EventPublisher.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.queue <- envelope{topic: topic, payload: payload}:
		return nil
	default:
		return ErrBusFull
	}
}

// Run dispatches queued events until ctx is done or the bus is closed. Events still
// queued at that point are dropped.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case env := <-b.queue:
			b.dispatch(ctx, env)
		}
	}
}

// Close stops accepting events and ends Run.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bus) dispatch(ctx context.Context, env envelope) {
	b.mu.RLock()
	handlers := b.handlers[env.topic]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no subscribers for event", "topic", env.topic)
		return
	}
	for _, h := range handlers {
		if err := h(ctx, env.topic, env.payload); err != nil {
			b.logger.Error("event handler failed", "topic", env.topic, "err", err)
		}
	}
}
