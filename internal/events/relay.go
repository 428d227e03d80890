package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"collabcalendar/internal/domain"
)

const (
	defaultRelayPollInterval = 2 * time.Second
	defaultRelayBatchSize    = 50
	defaultRelayMaxAttempts  = 10
)

// RelayConfig controls how the outbox is polled.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxAttempts is how many failed deliveries a message gets before it is left
	// in the outbox for inspection.
	MaxAttempts int
}

// Relay delivers outbox messages to registered handlers. A message is marked
// delivered only after its handler returns nil, so delivery is at-least-once.
type Relay struct {
	store    domain.OutboxStore
	handlers map[string]Handler
	config   RelayConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewRelay returns a Relay that polls store for undelivered events of the topics
// registered with Handle.
func NewRelay(store domain.OutboxStore, config RelayConfig, logger *slog.Logger) *Relay {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultRelayPollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultRelayBatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultRelayMaxAttempts
	}
	return &Relay{
		store:    store,
		handlers: make(map[string]Handler),
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle registers h as the consumer of topic. Only registered topics are fetched.
func (r *Relay) Handle(topic string, h Handler) {
	r.handlers[topic] = h
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started", "topics", r.topics(), "poll_interval", r.config.PollInterval)
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := r.Poll(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox poll failed", "err", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll delivers one batch and returns how many messages were handled successfully.
func (r *Relay) Poll(ctx context.Context) (int, error) {
	topics := r.topics()
	if len(topics) == 0 {
		return 0, nil
	}
	msgs, err := r.store.FetchPending(ctx, topics, r.config.MaxAttempts, r.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	delivered := 0
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		h, ok := r.handlers[msg.Topic]
		if !ok {
			continue
		}
		if err := h(ctx, msg.Topic, json.RawMessage(msg.Payload)); err != nil {
			attempt := msg.Attempts + 1
			r.logger.Warn("outbox delivery failed", "id", msg.ID, "topic", msg.Topic, "attempt", attempt, "err", err)
			if markErr := r.store.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
				return delivered, fmt.Errorf("mark outbox message %s failed: %w", msg.ID, markErr)
			}
			continue
		}
		if err := r.store.MarkDelivered(ctx, msg.ID, r.now().UTC()); err != nil {
			return delivered, fmt.Errorf("mark outbox message %s delivered: %w", msg.ID, err)
		}
		delivered++
	}
	return delivered, nil
}

func (r *Relay) topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
