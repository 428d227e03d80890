package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
// Implementations wrap failures with ErrTransientDelivery or ErrPermanentDelivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// RenderedEmail is a message ready to hand to a Mailer.
type RenderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

// EmailTemplateRenderer renders the emails this service sends.
type EmailTemplateRenderer interface {
	RenderInvite(data *InviteEmailData) (*RenderedEmail, error)
}

// InviteEmailData holds data for the calendar invite email.
type InviteEmailData struct {
	To             string
	CalendarName   string
	InviterAddress string
	AcceptURL      string
	DeclineURL     string
	ExpiresAt      time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvite(ctx context.Context, data *InviteEmailData) error
}
