// Package app holds the process wiring shared by cmd/server and cmd/notifier.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"collabcalendar/config"
	"collabcalendar/internal/adapters/email"
	"collabcalendar/internal/domain"
	"collabcalendar/internal/events"
	"collabcalendar/internal/repository/postgres"
	"collabcalendar/internal/services"
)

// OpenDB connects to Postgres, verifies the connection and applies migrations.
func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewInviteNotifier builds the notification consumer and the mail stack under it.
func NewInviteNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.InviteNotifier, error) {
	mailer, err := email.NewMailer(ctx, cfg.Mailer(), logger)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), cfg.Retry(), logger)
	return services.NewInviteNotifier(emailService, cfg.Notifier(), logger), nil
}

// Subscribe registers the notifier's handlers through register, which is
// Bus.Subscribe in single-process mode and Relay.Handle in the notifier process.
func Subscribe(register func(topic string, h events.Handler), notifier *services.InviteNotifier) {
	register(domain.TopicInviteCreated, events.Typed(notifier.HandleInviteCreated))
}
