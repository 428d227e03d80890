package config

import (
	"collabcalendar/internal/adapters/email"
	"collabcalendar/internal/events"
	"collabcalendar/internal/services"
)

// Invite returns the invite engine settings.
func (c *Config) Invite() services.InviteConfig {
	return services.InviteConfig{TTL: c.InviteTTL}
}

// Sweeper returns the expiry sweep schedule.
func (c *Config) Sweeper() services.SweeperConfig {
	return services.SweeperConfig{Interval: c.InviteSweepEvery, BatchSize: c.InviteSweepBatch}
}

// Retry returns the outbound mail retry budget.
func (c *Config) Retry() services.RetryConfig {
	return services.RetryConfig{MaxAttempts: c.Email.MaxAttempts, BaseDelay: c.Email.RetryBaseDelay}
}

// Notifier returns the link settings for invite emails.
func (c *Config) Notifier() services.NotifierConfig {
	return services.NotifierConfig{BaseURL: c.AppBaseURL}
}

// Relay returns the outbox polling settings.
func (c *Config) Relay() events.RelayConfig {
	return events.RelayConfig{
		PollInterval: c.Bus.PollInterval,
		BatchSize:    c.Bus.BatchSize,
		MaxAttempts:  c.Bus.MaxAttempts,
	}
}

// Mailer returns the mail transport settings.
func (c *Config) Mailer() email.MailerConfig {
	return email.MailerConfig{
		Provider:    c.Email.Provider,
		FromAddress: c.Email.FromAddress,
		FromName:    c.Email.FromName,
		SES: email.SESConfig{
			Region:             c.Email.AWSRegion,
			AccessKeyID:        c.Email.AWSAccessKeyID,
			SecretAccessKey:    c.Email.AWSSecretAccessKey,
			InsecureSkipVerify: c.Email.InsecureSkipVerify,
		},
	}
}
