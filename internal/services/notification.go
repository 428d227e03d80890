package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"collabcalendar/internal/domain"
)

// NotifierConfig holds what the notification consumer needs to build links.
type NotifierConfig struct {
	// BaseURL is the public web origin the accept and decline links point at.
	BaseURL string
}

// InviteNotifier turns invite-created events into invite emails. It never touches
// invite state, so handling the same event twice only sends a second email.
type InviteNotifier struct {
	email  domain.EmailService
	config NotifierConfig
	logger *slog.Logger
}

// NewInviteNotifier returns an InviteNotifier that emails invitees links rooted at
// config.BaseURL.
func NewInviteNotifier(email domain.EmailService, config NotifierConfig, logger *slog.Logger) *InviteNotifier {
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	return &InviteNotifier{email: email, config: config, logger: logger}
}

// HandleInviteCreated sends the invite email for evt. Delivery failures are logged
// and dropped; only cancellation of ctx is reported back so the event is redelivered.
func (n *InviteNotifier) HandleInviteCreated(ctx context.Context, evt domain.InviteCreated) error {
	to := strings.TrimSpace(evt.DestinationAddress)
	if to == "" {
		n.logger.Warn("invite event without destination address, skipping", "invite_id", evt.InviteID, "calendar_id", evt.CalendarID)
		return nil
	}

	data := &domain.InviteEmailData{
		To:             to,
		CalendarName:   evt.CalendarName,
		InviterAddress: evt.InviterAddress,
		AcceptURL:      n.link("/invites/accept", evt.PlaintextToken),
		DeclineURL:     n.link("/invites/decline", evt.PlaintextToken),
		ExpiresAt:      evt.ExpiresAt,
	}
	err := n.email.SendInvite(ctx, data)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, domain.ErrPermanentDelivery):
		n.logger.Error("invite email dropped", "invite_id", evt.InviteID, "to", to, "err", err)
	default:
		n.logger.Error("invite email failed", "invite_id", evt.InviteID, "to", to, "err", err)
	}
	return nil
}

func (n *InviteNotifier) link(path, token string) string {
	return n.config.BaseURL + path + "?token=" + url.QueryEscape(token)
}
