package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"collabcalendar/internal/domain"
)

const (
	defaultMailMaxAttempts = 3
	defaultMailBaseDelay   = 2 * time.Second
)

// RetryConfig bounds outbound mail delivery.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	retry    RetryConfig
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that renders templates and sends them
// through mailer, retrying transient failures.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, retry RetryConfig, logger *slog.Logger) domain.EmailService {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMailMaxAttempts
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = defaultMailBaseDelay
	}
	return &emailService{mailer: mailer, renderer: renderer, retry: retry, logger: logger}
}

// SendInvite renders and sends the calendar invite email. Once the
// attempts are used up, or the transport rejects the message outright, the error
// wraps domain.ErrPermanentDelivery.
func (s *emailService) SendInvite(ctx context.Context, data *domain.InviteEmailData) error {
	if data == nil {
		return fmt.Errorf("invite email data is nil")
	}
	msg, err := s.renderer.RenderInvite(data)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPermanentDelivery, err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.mailer.Send(ctx, data.To, msg.Subject, msg.HTML, msg.Text)
		if errors.Is(err, domain.ErrPermanentDelivery) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(&linearBackOff{base: s.retry.BaseDelay}),
		backoff.WithMaxTries(uint(s.retry.MaxAttempts)),
		// Only the attempt count bounds delivery.
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("invite email attempt failed, retrying", "to", data.To, "attempt", attempt, "retry_in", next, "err", err)
		}),
	)
	switch {
	case err == nil:
		s.logger.Info("invite email sent", "to", data.To, "attempts", attempt)
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("send invite email: %w", ctx.Err())
	case errors.Is(err, domain.ErrPermanentDelivery):
		return err
	default:
		return fmt.Errorf("%w: gave up after %d attempts: %w", domain.ErrPermanentDelivery, attempt, err)
	}
}
