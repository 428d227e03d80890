package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"collabcalendar/config"
	"collabcalendar/internal/domain"
	"collabcalendar/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_RoutesInviteCreatedToNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppBaseURL: "https://cal.example.com",
		Email: config.EmailConfig{
			Provider:       "noop",
			FromAddress:    "no-reply@example.com",
			MaxAttempts:    1,
			RetryBaseDelay: time.Millisecond,
		},
	}
	notifier, err := NewInviteNotifier(context.Background(), cfg, logger)
	require.NoError(t, err)

	registered := map[string]events.Handler{}
	Subscribe(func(topic string, h events.Handler) { registered[topic] = h }, notifier)

	require.Contains(t, registered, domain.TopicInviteCreated)
	payload, err := json.Marshal(domain.InviteCreated{
		InviteID:           "inv-1",
		CalendarID:         "cal-1",
		CalendarName:       "Team",
		DestinationAddress: "a@x.com",
		InviterAddress:     "owner@x.com",
		PlaintextToken:     "tok",
		ExpiresAt:          time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NoError(t, registered[domain.TopicInviteCreated](context.Background(), domain.TopicInviteCreated, json.RawMessage(payload)))
}
