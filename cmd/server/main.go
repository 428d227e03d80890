// Command server runs the calendar invite HTTP API and the invite expiry sweeper.
//
// @title Collab Calendar Invites API
// @version 1.0
// @description Calendar invitation lifecycle: invite, resend, revoke, accept and decline.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"collabcalendar/config"
	_ "collabcalendar/docs"
	"collabcalendar/internal/adapters/auth"
	"collabcalendar/internal/app"
	deliveryhttp "collabcalendar/internal/delivery/http"
	"collabcalendar/internal/delivery/http/controllers"
	"collabcalendar/internal/domain"
	"collabcalendar/internal/events"
	"collabcalendar/internal/platform/otel"
	"collabcalendar/internal/repository/postgres"
	"collabcalendar/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, "collabcalendar-server", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "err", err)
		}
	}()

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	invites := postgres.NewInviteRepository(db)
	tx := postgres.NewTransactor(db)

	var wg sync.WaitGroup
	defer wg.Wait()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var publisher domain.EventPublisher
	switch cfg.Bus.Kind {
	case "memory":
		notifier, err := app.NewInviteNotifier(ctx, cfg, logger)
		if err != nil {
			return err
		}
		bus := events.NewBus(cfg.Bus.MemoryQueueBuffer, logger)
		app.Subscribe(bus.Subscribe, notifier)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Run(runCtx)
		}()
		defer bus.Close()
		publisher = bus
		logger.Info("using in-process event bus")
	default:
		publisher = postgres.NewOutbox(db)
		logger.Info("using event outbox; run cmd/notifier to deliver invite emails")
	}

	inviteService := services.NewInviteService(
		invites,
		postgres.NewMemberRepository(db),
		postgres.NewCalendarRepository(db),
		postgres.NewUserRepository(db),
		tx,
		auth.NewInviteTokenCodec(),
		publisher,
		cfg.Invite(),
		logger,
	)
	authService := services.NewAuthService(
		postgres.NewUserRepository(db),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWTIssuer(cfg.JWTSecret),
		cfg.JWTExpiry,
		logger,
	)

	sweeper := services.NewSweeper(invites, tx, cfg.Sweeper(), logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(runCtx)
	}()

	router := deliveryhttp.NewRouter(
		controllers.NewInviteController(logger, inviteService),
		controllers.NewAuthController(logger, authService),
		deliveryhttp.RouterConfig{
			Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
			Logger:         logger,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		},
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
