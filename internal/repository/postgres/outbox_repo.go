package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"collabcalendar/internal/domain"
)

// Outbox stores published events in event_outbox. Publishing inside a transaction
// makes the event part of that transaction; the relay in the notifier delivers it.
type Outbox struct {
	DB  *sql.DB
	now func() time.Time
}

// NewOutbox returns an Outbox over db. It satisfies domain.TxPublisher.
func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{DB: db, now: time.Now}
}

// JoinsTx reports that Publish writes through the transaction in ctx.
func (o *Outbox) JoinsTx() bool { return true }

// Publish implements domain.EventPublisher.
func (o *Outbox) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	query := `
		INSERT INTO event_outbox (id, topic, payload, attempts, created_at)
		VALUES ($1, $2, $3, 0, $4)
	`
	_, err = conn(ctx, o.DB).ExecContext(ctx, query, uuid.NewString(), topic, body, o.now().UTC())
	return err
}

// FetchPending returns undelivered messages on the given topics, oldest first,
// that have been tried fewer than maxAttempts times.
func (o *Outbox) FetchPending(ctx context.Context, topics []string, maxAttempts, limit int) ([]*domain.OutboxMessage, error) {
	query := `
		SELECT id, topic, payload, attempts, COALESCE(last_error, ''), created_at
		FROM event_outbox
		WHERE delivered_at IS NULL AND topic = ANY($1) AND attempts < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := conn(ctx, o.DB).QueryContext(ctx, query, pq.Array(topics), maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]*domain.OutboxMessage, 0)
	for rows.Next() {
		m := &domain.OutboxMessage{}
		if err := rows.Scan(&m.ID, &m.Topic, &m.Payload, &m.Attempts, &m.LastError, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (o *Outbox) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE event_outbox SET delivered_at = $1, attempts = attempts + 1 WHERE id = $2`
	return o.exec(ctx, query, at, id)
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, lastErr string) error {
	query := `UPDATE event_outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2`
	return o.exec(ctx, query, lastErr, id)
}

func (o *Outbox) exec(ctx context.Context, query string, args ...any) error {
	result, err := conn(ctx, o.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
