package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/boards"
	"boardflow/internal/engine/webhooks"
	"boardflow/internal/platform/config"
)

// DueDateSweeper periodically scans cards whose due date has entered the
// due-soon horizon or passed entirely, emitting the matching events
// through the boards service so rules and webhooks fire exactly as they
// would for an interactive mutation.
type DueDateSweeper struct {
	svc      *boards.Service
	interval time.Duration
	horizon  time.Duration
}

func NewDueDateSweeper(svc *boards.Service, cfg config.WorkersConfig) *DueDateSweeper {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	horizon := cfg.DueSoonHorizon
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	return &DueDateSweeper{svc: svc, interval: interval, horizon: horizon}
}

// Run sweeps once immediately, then once per interval until ctx is
// cancelled.
func (s *DueDateSweeper) Run(ctx context.Context) {
	log.Info().
		Str("interval", s.interval.String()).
		Str("horizon", s.horizon.String()).
		Msg("Due-date sweeper started")

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Due-date sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *DueDateSweeper) sweep() {
	now := time.Now()

	dueSoon, err := s.svc.SweepDueSoon(now, s.horizon)
	if err != nil {
		log.Error().Str("error", err.Error()).Msg("Due-soon sweep failed")
	}

	overdue, err := s.svc.SweepOverdue(now)
	if err != nil {
		log.Error().Str("error", err.Error()).Msg("Overdue sweep failed")
	}

	if dueSoon > 0 || overdue > 0 {
		log.Info().
			Int("due_soon", dueSoon).
			Int("overdue", overdue).
			Msg("Due-date sweep completed")
	}
}

// RetentionSweeper prunes webhook delivery records older than the
// configured retention window so the delivery log stays bounded.
type RetentionSweeper struct {
	repo      *webhooks.Repository
	interval  time.Duration
	retention time.Duration
}

func NewRetentionSweeper(repo *webhooks.Repository, cfg config.WorkersConfig) *RetentionSweeper {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	retention := cfg.DeliveryRetention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &RetentionSweeper{repo: repo, interval: interval, retention: retention}
}

// Run prunes once immediately, then once per interval until ctx is
// cancelled.
func (s *RetentionSweeper) Run(ctx context.Context) {
	log.Info().
		Str("interval", s.interval.String()).
		Str("retention", s.retention.String()).
		Msg("Delivery retention sweeper started")

	s.prune()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Delivery retention sweeper stopped")
			return
		case <-ticker.C:
			s.prune()
		}
	}
}

func (s *RetentionSweeper) prune() {
	cutoff := time.Now().Add(-s.retention).Unix()

	deleted, err := s.repo.DeleteDeliveriesBefore(cutoff)
	if err != nil {
		log.Error().Str("error", err.Error()).Msg("Delivery retention prune failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Pruned old webhook deliveries")
	}
}
