// Package events carries lifecycle events from the services that publish them to
// the consumers that react to them, either in-process or through the outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler consumes one event. payload is the published value for the in-process
// bus and the raw JSON document for outbox deliveries.
type Handler func(ctx context.Context, topic string, payload any) error

// Typed adapts fn to a Handler, decoding JSON payloads into T.
func Typed[T any](fn func(ctx context.Context, payload T) error) Handler {
	return func(ctx context.Context, topic string, payload any) error {
		switch p := payload.(type) {
		case T:
			return fn(ctx, p)
		case *T:
			if p == nil {
				return fmt.Errorf("topic %s: nil payload", topic)
			}
			return fn(ctx, *p)
		case json.RawMessage:
			return decodeInto(ctx, topic, p, fn)
		case []byte:
			return decodeInto(ctx, topic, p, fn)
		default:
			return fmt.Errorf("topic %s: unexpected payload type %T", topic, payload)
		}
	}
}

func decodeInto[T any](ctx context.Context, topic string, raw []byte, fn func(context.Context, T) error) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("topic %s: decode payload: %w", topic, err)
	}
	return fn(ctx, v)
}
