package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"collabcalendar/internal/domain"
)

const (
	defaultSweepInterval  = time.Hour
	defaultSweepBatchSize = 500
)

// SweeperConfig holds the expiry sweep schedule.
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Sweeper periodically moves pending invites past their expiry to EXPIRED.
// Each batch commits on its own, so a failed run leaves earlier batches in place
// and the next run picks up the rest.
type Sweeper struct {
	invites domain.InviteRepository
	tx      domain.Transactor
	config  SweeperConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewSweeper returns a Sweeper that expires overdue pending invites in batches of
// config.BatchSize. Zero settings fall back to the defaults.
func NewSweeper(invites domain.InviteRepository, tx domain.Transactor, config SweeperConfig, logger *slog.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = defaultSweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultSweepBatchSize
	}
	return &Sweeper{
		invites: invites,
		tx:      tx,
		config:  config,
		logger:  logger,
		tracer:  otel.Tracer("collabcalendar/internal/services"),
		now:     time.Now,
	}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("invite sweeper started", "interval", s.config.Interval, "batch_size", s.config.BatchSize)
	s.runOnce(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("invite sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("invite sweep failed", "expired", n, "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("invite sweep finished", "expired", n)
	}
}

// SweepOnce expires every overdue pending invite and returns how many it changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "invite.Sweep")
	defer span.End()

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		var scanned, expired int
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			scanned, expired = 0, 0
			now := s.now()
			batch, err := s.invites.ListExpiredPending(ctx, now, s.config.BatchSize)
			if err != nil {
				return fmt.Errorf("list expired invites: %w", err)
			}
			scanned = len(batch)
			for _, inv := range batch {
				if !inv.ExpireIfNeeded(now) {
					continue
				}
				if err := s.invites.Update(ctx, inv); err != nil {
					return fmt.Errorf("expire invite %s: %w", inv.ID, err)
				}
				expired++
			}
			return nil
		})
		if err != nil {
			span.RecordError(err)
			return total, err
		}
		total += expired
		if scanned < s.config.BatchSize || expired == 0 {
			span.SetAttributes(attribute.Int("invites.expired", total))
			return total, nil
		}
	}
}
