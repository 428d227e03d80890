package domain

import (
	"context"
	"time"
)

// OutboxMessage is one published event waiting in the outbox for a consumer.
type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// OutboxStore is the consumer side of the event outbox.
type OutboxStore interface {
	FetchPending(ctx context.Context, topics []string, maxAttempts, limit int) ([]*OutboxMessage, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, lastErr string) error
}
